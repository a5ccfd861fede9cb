package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// rawAPI is the API client with the stored session attached when there is one.
func (r *Runner) rawAPI() *services.APIService {
	if api, err := r.authedAPI(); err == nil {
		return api
	}
	return r.api
}

// APIGet makes a direct GET request to the server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.rawAPI().Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkResponse(resp, shared.ErrAPIRequest); err != nil {
		return err
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the server
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.rawAPI().Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkResponse(resp, shared.ErrAPIRequest); err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

// DumpData is the combined server state written by `brain api dump`.
type DumpData struct {
	Health        any   `json:"health"`
	Session       any   `json:"session,omitempty"`
	Breaker       any   `json:"breaker,omitempty"`
	Tasks         any   `json:"tasks,omitempty"`
	VideoProgress any   `json:"video_progress,omitempty"`
	Errors        []any `json:"errors,omitempty"`
}

// APIDump fetches and displays the server state visible to the stored session.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")
	api := r.rawAPI()

	r.logger.Info("dumping API state")
	r.writePlain("Fetching server state...\n\n")

	dump := DumpData{Errors: []any{}}
	endpoints := []struct {
		label string
		path  string
		dst   *any
	}{
		{"📊 Fetching health status...", "/health", &dump.Health},
		{"🔑 Fetching session...", "/api/auth/session", &dump.Session},
		{"⚡ Fetching circuit breaker...", "/api/auth/breaker", &dump.Breaker},
		{"📝 Fetching tasks...", "/api/tasks", &dump.Tasks},
		{"🎬 Fetching video progress...", "/api/video-progress", &dump.VideoProgress},
	}

	for _, e := range endpoints {
		r.writePlain("%s\n", e.label)
		resp, err := api.Get(ctx, e.path)
		if err == nil {
			err = checkResponse(resp, shared.ErrAPIRequest)
		}
		if err != nil {
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": e.path, "error": err.Error()})
			r.logger.Warn("failed to fetch", "endpoint", e.path, "error", err)
			continue
		}
		*e.dst = resp.JSONData
	}

	r.writePlain("\n✓ Dump complete\n\n")

	if save {
		saveFile := "api_dump.json"
		data, err := json.MarshalIndent(dump, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(dump, pretty)
}
