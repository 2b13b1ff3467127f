// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/url"
)

// CrashClient provides access to stored crash reports.
type CrashClient struct {
	c *Client
}

// List returns crash summaries, newest first.
func (cc *CrashClient) List(ctx context.Context) ([]CrashSummary, error) {
	var resp struct {
		Crashes []CrashSummary `json:"crashes"`
	}
	if err := cc.c.get(ctx, "/api/crashes", &resp); err != nil {
		return nil, err
	}
	return resp.Crashes, nil
}

// Get returns one crash report.
func (cc *CrashClient) Get(ctx context.Context, id string) (*Crash, error) {
	var resp struct {
		Crash *Crash `json:"crash"`
	}
	if err := cc.c.get(ctx, "/api/crashes/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return resp.Crash, nil
}

// Newest returns the most recent crash report, or nil if there is none.
func (cc *CrashClient) Newest(ctx context.Context) (*Crash, error) {
	var resp struct {
		Crash *Crash `json:"crash"`
	}
	if err := cc.c.get(ctx, "/api/crashes/newest", &resp); err != nil {
		return nil, err
	}
	return resp.Crash, nil
}

// Delete removes a crash report.
func (cc *CrashClient) Delete(ctx context.Context, id string) error {
	return cc.c.delete(ctx, "/api/crashes/"+url.PathEscape(id), nil)
}

// Clear removes all crash reports.
func (cc *CrashClient) Clear(ctx context.Context) error {
	return cc.c.delete(ctx, "/api/crashes", nil)
}
