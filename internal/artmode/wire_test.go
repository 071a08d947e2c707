// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package artmode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/framebridge/framebridge/internal/models"
)

func TestEncodeRequestWrapsPayloadAsString(t *testing.T) {
	payload, id := BuildRequest("get_art_mode_status", nil)
	out, err := EncodeRequest(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var env struct {
		Method string `json:"method"`
		Params struct {
			Event string `json:"event"`
			To    string `json:"to"`
			Data  string `json:"data"`
		} `json:"params"`
	}
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}

	if env.Method != "ms.channel.emit" {
		t.Errorf("method = %q", env.Method)
	}
	if env.Params.Event != "art_app_request" || env.Params.To != "host" {
		t.Errorf("params = %+v", env.Params)
	}

	// The inner request must be a JSON string, not a nested object.
	var inner map[string]any
	if err := json.Unmarshal([]byte(env.Params.Data), &inner); err != nil {
		t.Fatalf("inner data is not JSON text: %v", err)
	}
	if inner["request"] != "get_art_mode_status" {
		t.Errorf("request = %v", inner["request"])
	}
	if inner["id"] != id || inner["request_id"] != id {
		t.Errorf("correlation ids not mirrored: id=%v request_id=%v want %s",
			inner["id"], inner["request_id"], id)
	}
}

func TestDecodeFrameChannelEvent(t *testing.T) {
	msg, err := DecodeFrame([]byte(`{"event":"ms.channel.ready","data":{}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindChannel {
		t.Errorf("kind = %v, want KindChannel", msg.Kind)
	}
	if msg.Event != "ms.channel.ready" {
		t.Errorf("event = %q", msg.Event)
	}
}

func TestDecodeFrameResponseWithStringData(t *testing.T) {
	// d2d payloads arrive as JSON-encoded strings on most firmwares.
	inner := `{"event":"get_art_mode_status","request_id":"abc-123","value":"on"}`
	frame, err := json.Marshal(map[string]any{
		"event": "d2d_service_message",
		"data":  inner,
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindResponse {
		t.Errorf("kind = %v, want KindResponse", msg.Kind)
	}
	if msg.RequestID != "abc-123" {
		t.Errorf("request_id = %q", msg.RequestID)
	}
	if msg.Str("value") != "on" {
		t.Errorf("value = %q", msg.Str("value"))
	}
}

func TestDecodeFrameResponseWithObjectData(t *testing.T) {
	frame := []byte(`{"event":"d2d_service_message","data":{"event":"current_artwork","content_id":"SAM-S0001"}}`)
	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindEvent {
		t.Errorf("kind = %v, want KindEvent", msg.Kind)
	}
	if msg.Event != "current_artwork" {
		t.Errorf("event = %q", msg.Event)
	}
	if msg.Str("content_id") != "SAM-S0001" {
		t.Errorf("content_id = %q", msg.Str("content_id"))
	}
}

func TestDecodeFrameFallsBackToIDField(t *testing.T) {
	inner := `{"event":"get_content_list","id":"legacy-id"}`
	frame, _ := json.Marshal(map[string]any{"event": "d2d_service_message", "data": inner})

	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindResponse || msg.RequestID != "legacy-id" {
		t.Errorf("got kind=%v request_id=%q", msg.Kind, msg.RequestID)
	}
}

func TestDecodeFrameErrorReply(t *testing.T) {
	inner := `{"event":"error","request_id":"abc","error_code":"-1"}`
	frame, _ := json.Marshal(map[string]any{"event": "d2d_service_message", "data": inner})

	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ErrorCode != "-1" {
		t.Errorf("error_code = %q", msg.ErrorCode)
	}

	opErr := msg.Err("get_thumbnail")
	var pe *ProtocolError
	if !errors.As(opErr, &pe) {
		t.Fatalf("expected ProtocolError, got %v", opErr)
	}
	if pe.Op != "get_thumbnail" || pe.Code != "-1" {
		t.Errorf("protocol error = %+v", pe)
	}
}

func TestDecodeFrameNumericErrorCode(t *testing.T) {
	frame := []byte(`{"event":"d2d_service_message","data":{"event":"error","request_id":"abc","error_code":-1}}`)
	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ErrorCode != "-1" {
		t.Errorf("error_code = %q, want numeric tolerated as string", msg.ErrorCode)
	}
}

func TestDecodeFrameInvalidJSON(t *testing.T) {
	if _, err := DecodeFrame([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
	if _, err := DecodeFrame([]byte(`{"event":"d2d_service_message","data":"not json"}`)); err == nil {
		t.Error("expected error for malformed d2d payload")
	}
}

func TestParseConnInfoDoubleEncoded(t *testing.T) {
	inner := `{"event":"ready_to_use","request_id":"x","conn_info":"{\"ip\":\"192.168.1.50\",\"port\":\"54321\",\"secured\":\"True\",\"key\":\"sek\"}"}`
	frame, _ := json.Marshal(map[string]any{"event": "d2d_service_message", "data": inner})
	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatal(err)
	}

	info, err := ParseConnInfo(msg)
	if err != nil {
		t.Fatalf("parse conn_info: %v", err)
	}
	if info.IP != "192.168.1.50" || info.Port != 54321 {
		t.Errorf("endpoint = %s", info.Addr())
	}
	if !info.Secured || info.Key != "sek" {
		t.Errorf("secured=%v key=%q", info.Secured, info.Key)
	}
	if info.Addr() != "192.168.1.50:54321" {
		t.Errorf("addr = %q", info.Addr())
	}
}

func TestParseConnInfoPlainObject(t *testing.T) {
	frame := []byte(`{"event":"d2d_service_message","data":{"event":"ready_to_use","request_id":"x","conn_info":{"ip":"10.0.0.2","port":7002,"secured":false}}}`)
	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatal(err)
	}

	info, err := ParseConnInfo(msg)
	if err != nil {
		t.Fatalf("parse conn_info: %v", err)
	}
	if info.IP != "10.0.0.2" || info.Port != 7002 || info.Secured {
		t.Errorf("conn_info = %+v", info)
	}
}

func TestParseConnInfoMissingOrIncomplete(t *testing.T) {
	msg := &Message{Fields: map[string]any{}}
	if _, err := ParseConnInfo(msg); err == nil {
		t.Error("expected error when conn_info absent")
	}

	msg = &Message{Fields: map[string]any{"conn_info": `{"ip":"","port":0}`}}
	if _, err := ParseConnInfo(msg); err == nil {
		t.Error("expected error for incomplete conn_info")
	}
}

func TestParseContentList(t *testing.T) {
	list := `[{"content_id":"MY_F0001","category_id":"MY-C0002","matte_id":"none","width":3840,"height":2160},` +
		`{"content_id":"SAM-S0042","category_id":"MY-C0008","image_date":"2024:06:01 10:00:00"},` +
		`{"content_id":"20240101"},` +
		`{"category_id":"MY-C0008"}]`
	inner, _ := json.Marshal(map[string]any{
		"event":        "get_content_list",
		"request_id":   "x",
		"content_list": list,
	})
	frame, _ := json.Marshal(map[string]any{"event": "d2d_service_message", "data": string(inner)})
	msg, err := DecodeFrame(frame)
	if err != nil {
		t.Fatal(err)
	}

	items, err := ParseContentList(msg)
	if err != nil {
		t.Fatalf("parse content_list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items (entry without content_id dropped), got %d", len(items))
	}

	if items[0].Origin != models.OriginPersonal {
		t.Errorf("MY_F0001 origin = %v", items[0].Origin)
	}
	if items[0].Width != 3840 || items[0].Height != 2160 {
		t.Errorf("dimensions = %dx%d", items[0].Width, items[0].Height)
	}
	if items[1].Origin != models.OriginStore || items[1].ImageDate == "" {
		t.Errorf("store item = %+v", items[1])
	}
	if items[2].Origin != models.OriginAmbient {
		t.Errorf("numeric id origin = %v", items[2].Origin)
	}
}

func TestParseContentListAbsent(t *testing.T) {
	msg := &Message{Fields: map[string]any{}}
	items, err := ParseContentList(msg)
	if err != nil || items != nil {
		t.Errorf("expected nil, nil for absent list, got %v, %v", items, err)
	}
}

func TestTransferFrameRoundTrip(t *testing.T) {
	payload := []byte("jpeg bytes here")
	header := &TransferHeader{
		Num:        0,
		Total:      1,
		FileLength: int64(len(payload)),
		FileName:   "framebridge",
		FileType:   "jpg",
		SecKey:     "sek",
		Version:    "0.0.1",
	}

	var buf bytes.Buffer
	if err := WriteTransferFrame(&buf, header, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadTransferHeader(&buf)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if got.FileLength != int64(len(payload)) || got.FileType != "jpg" || got.SecKey != "sek" {
		t.Errorf("header = %+v", got)
	}
	if buf.Len() != len(payload) {
		t.Errorf("payload bytes remaining = %d, want %d", buf.Len(), len(payload))
	}
}

func TestReadTransferHeaderStringNumerics(t *testing.T) {
	headerJSON := []byte(`{"num":"0","total":"1","fileLength":"2048","fileType":"jpg"}`)
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, byte(len(headerJSON))})
	buf.Write(headerJSON)

	h, err := ReadTransferHeader(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if h.FileLength != 2048 || h.Total != 1 {
		t.Errorf("header = %+v", h)
	}
}

func TestReadTransferHeaderRejectsBadLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if _, err := ReadTransferHeader(&buf); err == nil {
		t.Error("expected error for implausible header length")
	}

	buf.Reset()
	buf.Write([]byte{0, 0})
	if _, err := ReadTransferHeader(&buf); err == nil {
		t.Error("expected error for truncated length prefix")
	}

	// Missing fileLength is a protocol violation.
	headerJSON := []byte(`{"fileType":"jpg"}`)
	buf.Reset()
	buf.Write([]byte{0, 0, 0, byte(len(headerJSON))})
	buf.Write(headerJSON)
	if _, err := ReadTransferHeader(&buf); err == nil {
		t.Error("expected error for header without fileLength")
	}
}
