package v1

import (
	"context"

	"github.com/forptiter/study-assistant/pkg/types"
)

type userCtxKey struct{}

// InjectUser binds the signed-in user to ctx; every logic built from ctx acts on their behalf.
func InjectUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func UserFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(types.User)
	return user, ok
}

type UserInfo struct {
	user types.User
}

func SetupUserInfo(ctx context.Context) UserInfo {
	user, _ := UserFromContext(ctx)
	return UserInfo{user: user}
}

func (u UserInfo) GetUserInfo() types.User {
	return u.user
}
