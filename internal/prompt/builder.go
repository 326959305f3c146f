package prompt

import (
	"strings"

	"github.com/pagelens/pagelens-backend/internal/models"
)

// Messages is the provider-neutral prompt pair every transport sends.
type Messages struct {
	System string
	User   string
}

// instruction is the fixed first line of every user prompt.
const instruction = "请总结下面这个网页的内容。"

// Build resolves the effective template and composes the prompt pair.
// Pure function of (page, settings).
func Build(page models.PageContent, settings models.Settings) Messages {
	return Messages{
		System: resolveSystem(settings),
		User:   buildUser(page),
	}
}

// EffectiveTemplateID resolves the "custom with fallback" rule: a
// selected built-in wins; custom uses the user's prompt when present,
// otherwise the last used built-in.
func EffectiveTemplateID(settings models.Settings) string {
	if settings.SummaryTemplateID != CustomTemplateID {
		if _, ok := TemplateByID(settings.SummaryTemplateID); ok {
			return settings.SummaryTemplateID
		}
		return DefaultTemplateID
	}

	if strings.TrimSpace(settings.CustomSystemPrompt) != "" {
		return CustomTemplateID
	}

	if _, ok := TemplateByID(settings.LastDefaultTemplateID); ok {
		return settings.LastDefaultTemplateID
	}
	return DefaultTemplateID
}

func resolveSystem(settings models.Settings) string {
	id := EffectiveTemplateID(settings)
	if id == CustomTemplateID {
		return strings.TrimSpace(settings.CustomSystemPrompt)
	}
	tpl, _ := TemplateByID(id)
	return tpl.System
}

func buildUser(page models.PageContent) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString("标题: ")
	b.WriteString(page.Title)
	b.WriteString("\n链接: ")
	b.WriteString(page.URL)
	b.WriteString("\n\n正文:\n")
	b.WriteString(page.Text)
	return b.String()
}

// InstructionPrefixes are the known fixed lines a web-chat backend may
// echo back at the head of its answer. Used by the transports to strip
// prompt echo.
func InstructionPrefixes() []string {
	return []string{instruction, "标题: ", "正文:"}
}
