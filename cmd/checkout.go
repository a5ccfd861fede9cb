package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/secondbrain/internal/shared"
)

// Checkout starts a Brain+ purchase for the signed-in user and opens the hosted checkout page.
func (r *Runner) Checkout(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(ctx)
	if err != nil {
		return err
	}
	body := map[string]string{"user_id": user.ID}

	if cmd.Bool("intent") {
		resp, err := r.api.PostJSON(ctx, "/api/create-payment-intent", body)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if err := checkResponse(resp, shared.ErrPaymentFailed); err != nil {
			return err
		}
		var out struct {
			ClientSecret string `json:"clientSecret"`
		}
		if err := resp.Decode(&out); err != nil {
			return err
		}
		return r.writePlain("Client secret: %s\n", out.ClientSecret)
	}

	resp, err := r.api.PostJSON(ctx, "/api/create-checkout-session", body)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkResponse(resp, shared.ErrPaymentFailed); err != nil {
		return err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := resp.Decode(&out); err != nil {
		return err
	}
	if out.URL == "" {
		return fmt.Errorf("%w: checkout session has no url", shared.ErrPaymentFailed)
	}

	r.logger.Info("checkout session created", "user", user.ID)
	r.writePlain("Checkout: %s\n", out.URL)
	if cmd.Bool("no-browser") {
		return nil
	}
	if err := shared.OpenBrowser(out.URL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
	}
	return nil
}
