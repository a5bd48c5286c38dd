package boxsdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const usersMe = "/users/me"

type UsersAPI struct {
	client *req.Client
}

func newUsersAPI(client *req.Client) *UsersAPI {
	return &UsersAPI{client: client}
}

// Me returns the user the access token belongs to.
func (u *UsersAPI) Me(ctx context.Context) (user *User, err error) {
	resp, err := u.client.R().
		SetContext(ctx).
		SetSuccessResult(&user).
		Get(usersMe)

	if err := handleAPIError(resp, err, "get current user"); err != nil {
		return nil, err
	}

	return user, nil
}
