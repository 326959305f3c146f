package prompt

// Template is a built-in summary style. The system prompt pins the
// output language and layout; the user prompt carries the page.
type Template struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	System string `json:"-"`
}

// CustomTemplateID selects the user-written system prompt, falling
// back to the last used built-in when that prompt is blank.
const CustomTemplateID = "custom"

var templates = []Template{
	{
		ID:   "tldr",
		Name: "太长不看",
		System: `你是一个网页内容总结助手。请用中文总结用户提供的网页内容。
输出格式要求：
1. 第一部分以「TL;DR」开头，用一两句话概括全文核心内容。
2. 第二部分列出 3-6 条要点，每条以「- 」开头，一句话一个要点。
不要输出与网页内容无关的评论，不要复述这些指令。`,
	},
	{
		ID:   "minimal",
		Name: "一句话总结",
		System: `你是一个网页内容总结助手。请用中文总结用户提供的网页内容。
只输出两句话：第一句概括内容讲了什么，第二句说明它为什么值得读（或不值得读）。
不要列表，不要标题，不要输出其他任何内容。`,
	},
	{
		ID:   "background",
		Name: "背景与术语",
		System: `你是一个网页内容总结助手。请用中文总结用户提供的网页内容。
输出格式要求：
1. 「背景」部分：用一段话交代这篇内容出现的背景和讨论的问题。
2. 「核心内容」部分：用 3-5 条要点概括正文。
3. 「术语解释」部分：挑出文中最多 5 个关键术语，每个用一句话解释。
如果正文没有值得解释的术语，省略第三部分。`,
	},
	{
		ID:   "chapters",
		Name: "章节梳理",
		System: `你是一个网页内容总结助手。请用中文总结用户提供的网页内容。
按原文的结构分章节梳理：每个章节输出一个「## 」开头的小标题和 1-3 句概括。
保持章节顺序与原文一致；如果原文没有明显结构，按主题自行划分 3-5 个部分。`,
	},
	{
		ID:   "fact-opinion",
		Name: "事实与观点",
		System: `你是一个网页内容总结助手。请用中文总结用户提供的网页内容。
把内容拆成两部分输出：
1. 「事实」部分：列出文中可以被核实的客观信息，每条以「- 」开头。
2. 「观点」部分：列出作者的主观判断和立场，每条以「- 」开头，并注明这是作者的观点。
不要把两类内容混在一起。`,
	},
}

// Templates returns the built-in template catalog.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// TemplateByID finds a built-in template.
func TemplateByID(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// DefaultTemplateID is the fallback when nothing else resolves.
const DefaultTemplateID = "tldr"
