package webchat

import (
	"context"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/pagelens/pagelens-backend/internal/apperr"
)

var (
	accessTokenKeys  = []string{"access_token", "accessToken", "token"}
	refreshTokenKeys = []string{"refresh_token", "refreshToken"}
)

// RefreshViaEndpoint builds a RefreshFunc for backends whose refresh
// call is a POST authenticated by the refresh token itself. setAuth
// places the refresh token on the request the way the backend expects.
func RefreshViaEndpoint(refreshURL string, setAuth func(req *http.Request, refreshToken string)) RefreshFunc {
	return func(ctx context.Context, httpc *http.Client, refreshToken string) (*RefreshResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, nil)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternalFault, "构造请求失败", err)
		}
		setAuth(req, refreshToken)

		resp, err := httpc.Do(req)
		if err != nil {
			return nil, MapTransportError(err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, MapTransportError(err)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, apperr.New(apperr.KindAuthExpired, "登录已失效，请重新连接")
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, apperr.FromStatus(resp.StatusCode, errorDetail(raw))
		}

		payload := gjson.ParseBytes(raw)
		access := FirstNonEmpty(payload, accessTokenKeys, "data")
		if access == "" {
			return nil, apperr.New(apperr.KindInternalFault, "刷新凭证的响应缺少 access token")
		}

		return &RefreshResult{
			AccessToken:  access,
			RefreshToken: FirstNonEmpty(payload, refreshTokenKeys, "data"),
		}, nil
	}
}
