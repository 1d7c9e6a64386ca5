package controller

import "context"

type contextKey int

const (
	memberIdCtxKey contextKey = iota
)

func (c controller) getMemberIdFromCtx(ctx context.Context) string {
	memberId, ok := ctx.Value(memberIdCtxKey).(string)
	if !ok {
		return ""
	}

	return memberId
}
