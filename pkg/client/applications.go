// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/url"
	"strconv"
)

// ApplicationClient provides catalog and process operations.
//
// Access this client through [Client.Applications]:
//
//	running, err := client.Applications.Running(ctx)
type ApplicationClient struct {
	c *Client
}

// List returns every application in the catalog.
func (a *ApplicationClient) List(ctx context.Context) ([]Application, error) {
	var resp struct {
		Applications []Application `json:"applications"`
	}
	if err := a.c.get(ctx, "/api/applications", &resp); err != nil {
		return nil, err
	}
	return resp.Applications, nil
}

// Running returns the applications currently running, oldest first.
func (a *ApplicationClient) Running(ctx context.Context) ([]RunningApp, error) {
	var resp struct {
		Running []RunningApp `json:"running"`
	}
	if err := a.c.get(ctx, "/api/applications/running", &resp); err != nil {
		return nil, err
	}
	return resp.Running, nil
}

// Launch starts the application with the given catalog id.
//
// Fails with NOT_FOUND for an unknown id, ALREADY_RUNNING when it is
// already running and SPAWN_FAILED when the process could not be created.
func (a *ApplicationClient) Launch(ctx context.Context, id string) (*RunningApp, error) {
	var resp struct {
		Success    bool       `json:"success"`
		RunningApp RunningApp `json:"runningApp"`
	}
	if err := a.c.post(ctx, "/api/applications/"+url.PathEscape(id)+"/launch", &resp); err != nil {
		return nil, err
	}
	return &resp.RunningApp, nil
}

// Stop stops a running application. ref is the catalog id or the label
// returned by Launch. The call returns once the stop signal is sent.
func (a *ApplicationClient) Stop(ctx context.Context, ref string) error {
	return a.c.delete(ctx, "/api/applications/"+url.PathEscape(ref)+"/stop", nil)
}

// Logs returns up to n recent output lines of a running application. n <= 0
// uses the server default.
func (a *ApplicationClient) Logs(ctx context.Context, ref string, n int) ([]string, error) {
	path := "/api/applications/" + url.PathEscape(ref) + "/logs"
	if n > 0 {
		path += "?lines=" + strconv.Itoa(n)
	}

	var resp struct {
		Lines []string `json:"lines"`
	}
	if err := a.c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Lines, nil
}
