package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/user"
)

// addUser creates a user, or updates an existing one matched by email.
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	now := time.Now().UTC()
	exists := true
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		exists = false
		usr = user.User{
			ID:        uuid.NewString(),
			Email:     email,
			Role:      user.RoleUser,
			Courses:   []string{},
			CreatedAt: now,
		}
	}

	usr.Name = name
	usr.IsVerified = true
	usr.UpdatedAt = now
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
