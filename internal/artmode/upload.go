// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package artmode

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// UploadOptions configure an artwork upload.
type UploadOptions struct {
	// FileType is the image format: JPEG or PNG.
	FileType string

	// Matte and PortraitMatte select the initial mattes; empty means none.
	Matte         string
	PortraitMatte string

	// Date overrides the image date shown on the TV. Defaults to now.
	Date time.Time
}

const uploadEventTimeout = 30 * time.Second

// Upload pushes a new artwork image to the TV and returns its content ID.
// The TV opens an ephemeral endpoint for the bytes and confirms with an
// image_added event once the transfer lands.
func (t *TransferChannel) Upload(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload: empty image")
	}
	fileType := opts.FileType
	if fileType == "" {
		fileType = "JPEG"
	}
	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}
	matte := opts.Matte
	if matte == "" {
		matte = "none"
	}
	portraitMatte := opts.PortraitMatte
	if portraitMatte == "" {
		portraitMatte = "none"
	}

	extra := map[string]any{
		"file_type":         fileType,
		"file_size":         len(data),
		"image_date":        date.Format("2006:01:02 15:04:05"),
		"matte_id":          matte,
		"portrait_matte_id": portraitMatte,
		"conn_info": map[string]any{
			"d2d_mode":      "socket",
			"connection_id": rand.Uint32(),
			"id":            NewRequestID(),
		},
	}

	msg, err := t.req.RequestTimeout(ctx, "send_image", extra, negotiateTimeout)
	if err != nil {
		return "", fmt.Errorf("upload negotiation: %w", err)
	}
	info, err := ParseConnInfo(msg)
	if err != nil {
		return "", fmt.Errorf("upload negotiation: %w", err)
	}

	// Register before pushing bytes so the confirmation cannot be missed.
	added := t.req.WatchEvent("image_added")

	if err := t.push(ctx, info, data, fileType); err != nil {
		return "", err
	}

	confirmed, err := added.Wait(ctx, uploadEventTimeout)
	if err != nil {
		return "", fmt.Errorf("upload confirmation: %w", err)
	}

	contentID := confirmed.Str("content_id")
	if contentID == "" {
		return "", fmt.Errorf("upload confirmed without content_id")
	}
	t.logger.Info().
		Str("content_id", contentID).
		Int("bytes", len(data)).
		Msg("Artwork uploaded")
	return contentID, nil
}

func (t *TransferChannel) push(ctx context.Context, info *ConnInfo, data []byte, fileType string) error {
	dialCtx, cancel := context.WithTimeout(ctx, t.ConnectTimeout)
	defer cancel()
	conn, err := t.dial(dialCtx, "tcp", info.Addr())
	if err != nil {
		return fmt.Errorf("dial upload endpoint %s: %w", info.Addr(), err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(t.TransferTimeout)); err != nil {
		return fmt.Errorf("set upload deadline: %w", err)
	}

	header := &TransferHeader{
		Num:        0,
		Total:      1,
		FileLength: int64(len(data)),
		FileName:   "framebridge",
		FileType:   fileType,
		SecKey:     info.Key,
		Version:    "0.0.1",
	}
	if err := WriteTransferFrame(conn, header, data); err != nil {
		return fmt.Errorf("push image: %w", err)
	}
	return nil
}
