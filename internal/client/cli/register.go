package cli

import (
	"context"
	"fmt"

	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/common"
)

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	role, err := GetRole(a.reader, a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	defer common.WipeByteArray(password)

	result, err := a.store.SignUp(ctx, email, string(password), models.ParseRole(role))
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return err
	}

	if result.RequiresVerification {
		fmt.Fprintln(a.out, "Account created. Check your email to confirm the address, then log in.")
		return nil
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", result.User.Username)
	if redirect := a.redirector.Decide(a.location()); redirect != nil {
		a.follow(redirect)
	}
	return nil
}
