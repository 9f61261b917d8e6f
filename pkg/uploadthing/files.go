package uploadthing

import (
	"context"
	"fmt"
)

// API paths
const (
	pathDeleteFiles  = "/v6/deleteFiles"
	pathListFiles    = "/v6/listFiles"
	pathGetUsageInfo = "/v6/getUsageInfo"
	pathRenameFiles  = "/v6/renameFiles"
	pathUpdateACL    = "/v6/updateACL"
)

// DeleteFiles deletes files by file key or by custom id
func (c *Client) DeleteFiles(ctx context.Context, keys []string, keyType KeyType) (*DeleteFilesResponse, error) {
	body, err := deleteFilesBody(keys, keyType)
	if err != nil {
		return nil, err
	}

	var resp DeleteFilesResponse
	if err := c.do(ctx, pathDeleteFiles, body, &resp); err != nil {
		return nil, fmt.Errorf("delete files: %w", err)
	}
	return &resp, nil
}

// ListFiles lists the app's files
func (c *Client) ListFiles(ctx context.Context, opts ListFilesOptions) (*ListFilesResponse, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, fmt.Errorf("uploadthing: limit and offset cannot be negative")
	}

	var resp ListFilesResponse
	if err := c.do(ctx, pathListFiles, opts, &resp); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if resp.Files == nil {
		resp.Files = []FileData{}
	}
	return &resp, nil
}

// GetUsageInfo returns storage usage for the app and account
func (c *Client) GetUsageInfo(ctx context.Context) (*UsageInfo, error) {
	var resp UsageInfo
	if err := c.do(ctx, pathGetUsageInfo, nil, &resp); err != nil {
		return nil, fmt.Errorf("get usage info: %w", err)
	}
	return &resp, nil
}

// RenameFiles renames files; each update names the file by key or custom id
func (c *Client) RenameFiles(ctx context.Context, updates []RenameUpdate) (*RenameFilesResponse, error) {
	for _, u := range updates {
		if err := u.Validate(); err != nil {
			return nil, err
		}
	}

	var resp RenameFilesResponse
	if err := c.do(ctx, pathRenameFiles, updatesRequest[RenameUpdate]{Updates: nonNil(updates)}, &resp); err != nil {
		return nil, fmt.Errorf("rename files: %w", err)
	}
	return &resp, nil
}

// UpdateACL changes file ACLs. Every update is validated before anything is sent.
func (c *Client) UpdateACL(ctx context.Context, updates []ACLUpdate) (*UpdateACLResponse, error) {
	for _, u := range updates {
		if err := u.Validate(); err != nil {
			return nil, err
		}
	}

	var resp UpdateACLResponse
	if err := c.do(ctx, pathUpdateACL, updatesRequest[ACLUpdate]{Updates: nonNil(updates)}, &resp); err != nil {
		return nil, fmt.Errorf("update acl: %w", err)
	}
	return &resp, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
