package services

import (
	"karmafeed/internal/models"
	"strings"
)

// Identity 是外部认证层交给我们的不透明身份。字段都可能缺失。
type Identity struct {
	ID       string           `json:"id,omitempty"`
	Email    string           `json:"email,omitempty"`
	Username string           `json:"username,omitempty"`
	Session  *SessionIdentity `json:"user,omitempty"`
}

// SessionIdentity 是包裹在会话对象里的用户信息
type SessionIdentity struct {
	Email string `json:"email,omitempty"`
}

// 解析来源标签
const (
	SourceEmail        = "email"
	SourceSessionEmail = "session_email"
	SourceUsername     = "username"
)

// Resolution 记录解析结果以及命中的步骤
type Resolution struct {
	Username string
	Source   string
}

type resolveStep struct {
	source  string
	resolve func(Identity) string
}

// 按优先级排列：邮箱本地部分 > 会话邮箱本地部分 > 显式用户名
var resolvePipeline = []resolveStep{
	{SourceEmail, func(id Identity) string { return emailLocalPart(id.Email) }},
	{SourceSessionEmail, func(id Identity) string {
		if id.Session == nil {
			return ""
		}
		return emailLocalPart(id.Session.Email)
	}},
	{SourceUsername, func(id Identity) string { return strings.TrimSpace(id.Username) }},
}

// ResolveUsername 将身份解析为稳定的用户名，无副作用。
// 所有步骤都未命中时返回 AuthenticationError。
func ResolveUsername(id Identity) (Resolution, error) {
	for _, step := range resolvePipeline {
		if name := step.resolve(id); name != "" {
			return Resolution{Username: name, Source: step.source}, nil
		}
	}
	return Resolution{}, models.NewAuthenticationError("unresolvable identity")
}

func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.IndexByte(email, '@'); i >= 0 {
		email = email[:i]
	}
	return strings.TrimSpace(email)
}
