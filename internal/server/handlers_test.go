package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/ambient-extractor/internal/ambient"
	"github.com/ironsheep/ambient-extractor/internal/imaging"
)

// fakeAmbient records the requests it receives and returns canned values.
type fakeAmbient struct {
	lastReq   *ambient.Request
	lastScale float64
	err       error
}

func (f *fakeAmbient) Extract(_ context.Context, req *ambient.Request) (*ambient.Result, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &ambient.Result{Source: req.Source(), Color: imaging.NewColorResult(imaging.RGBColor{R: 255, G: 128, B: 64})}, nil
}

func (f *fakeAmbient) TurnOn(_ context.Context, req *ambient.Request) (*ambient.Outcome, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &ambient.Outcome{Dispatched: true, Params: req.LightParams}, nil
}

func (f *fakeAmbient) Preview(_ context.Context, req *ambient.Request, scale float64) (*imaging.PreviewResult, error) {
	f.lastReq = req
	f.lastScale = scale
	if f.err != nil {
		return nil, f.err
	}
	return &imaging.PreviewResult{Width: 1, Height: 1, MimeType: "image/png"}, nil
}

func toolCall(t *testing.T, name string, args map[string]interface{}) *MCPRequest {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params}
}

// toolText extracts the text payload of a successful tools/call response.
func toolText(t *testing.T, resp *MCPResponse) string {
	t.Helper()
	if resp == nil {
		t.Fatal("nil response")
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %#v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	return text
}

func TestHandleToolsCall_TurnOn(t *testing.T) {
	fake := &fakeAmbient{}
	s := New(fake, "dev")

	resp := s.handleRequest(context.Background(), toolCall(t, "ambient_turn_on", map[string]interface{}{
		"url":        "http://camera.local/snapshot.jpg",
		"entity_id":  "light.living_room",
		"transition": 2,
	}))

	var out ambient.Outcome
	if err := json.Unmarshal([]byte(toolText(t, resp)), &out); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !out.Dispatched {
		t.Error("expected dispatched outcome")
	}
	if fake.lastReq == nil || fake.lastReq.URL != "http://camera.local/snapshot.jpg" {
		t.Fatalf("request not forwarded: %+v", fake.lastReq)
	}
	if fake.lastReq.LightParams["entity_id"] != "light.living_room" {
		t.Errorf("entity_id not passed through: %v", fake.lastReq.LightParams)
	}
	if _, ok := fake.lastReq.LightParams["transition"]; !ok {
		t.Errorf("transition not passed through: %v", fake.lastReq.LightParams)
	}
}

func TestHandleToolsCall_Extract(t *testing.T) {
	fake := &fakeAmbient{}
	s := New(fake, "dev")

	resp := s.handleRequest(context.Background(), toolCall(t, "ambient_extract", map[string]interface{}{
		"path":            "/images/frame.png",
		"brightness_mode": "rms",
		"crop_region":     "top-half",
	}))

	var res ambient.Result
	if err := json.Unmarshal([]byte(toolText(t, resp)), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Color.Hex != "#FF8040" {
		t.Errorf("hex: got %s, want #FF8040", res.Color.Hex)
	}
	if fake.lastReq.BrightnessMode != imaging.BrightnessRMS {
		t.Errorf("mode: got %s, want rms", fake.lastReq.BrightnessMode)
	}
	if !fake.lastReq.Crop.Active() {
		t.Error("crop_region should produce an active crop")
	}
}

func TestHandleToolsCall_CropPreviewScale(t *testing.T) {
	tests := []struct {
		name      string
		scale     interface{}
		wantScale float64
		wantErr   bool
	}{
		{"default", nil, 1.0, false},
		{"half", 0.5, 0.5, false},
		{"string number", "2", 2.0, false},
		{"zero", 0, 0, true},
		{"negative", -1, 0, true},
		{"garbage", "big", 0, true},
		{"largest", 4, 4.0, false},
		{"oversized", 100000, 0, true},
		{"oversized string", "1e9", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAmbient{}
			s := New(fake, "dev")

			args := map[string]interface{}{"path": "/images/frame.png"}
			if tt.scale != nil {
				args["scale"] = tt.scale
			}
			resp := s.handleRequest(context.Background(), toolCall(t, "ambient_crop_preview", args))

			if tt.wantErr {
				if resp.Error == nil {
					t.Fatal("expected error")
				}
				data, ok := resp.Error.Data.(ToolErrorData)
				if !ok || data.Kind != "validation" {
					t.Errorf("error data: got %#v", resp.Error.Data)
				}
				if fake.lastReq != nil {
					t.Error("service should not be called on invalid scale")
				}
				return
			}

			toolText(t, resp)
			if fake.lastScale != tt.wantScale {
				t.Errorf("scale: got %v, want %v", fake.lastScale, tt.wantScale)
			}
			if _, leaked := fake.lastReq.LightParams["scale"]; leaked {
				t.Error("scale should not be forwarded as a light parameter")
			}
		})
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		svcErr   error
		wantKind string
	}{
		{
			name:     "unknown tool",
			tool:     "image_info",
			args:     map[string]interface{}{"path": "/x.png"},
			wantKind: "unknown_tool",
		},
		{
			name:     "missing source",
			tool:     "ambient_extract",
			args:     map[string]interface{}{},
			wantKind: "validation",
		},
		{
			name:     "both sources",
			tool:     "ambient_turn_on",
			args:     map[string]interface{}{"path": "/x.png", "url": "http://a/b.png"},
			wantKind: "validation",
		},
		{
			name:     "access denied",
			tool:     "ambient_turn_on",
			args:     map[string]interface{}{"path": "/x.png"},
			svcErr:   &ambient.Error{Kind: ambient.ErrAccessDenied, Source: "/x.png", Err: errors.New("outside allowed dirs")},
			wantKind: "access_denied",
		},
		{
			name:     "dispatch",
			tool:     "ambient_turn_on",
			args:     map[string]interface{}{"path": "/x.png"},
			svcErr:   &ambient.Error{Kind: ambient.ErrDispatch, Source: "/x.png", Err: errors.New("503")},
			wantKind: "dispatch",
		},
		{
			name:     "plain error",
			tool:     "ambient_extract",
			args:     map[string]interface{}{"path": "/x.png"},
			svcErr:   errors.New("boom"),
			wantKind: "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeAmbient{err: tt.svcErr}, "dev")
			resp := s.handleRequest(context.Background(), toolCall(t, tt.tool, tt.args))

			if resp.Error == nil {
				t.Fatal("expected error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("code: got %d, want -32000", resp.Error.Code)
			}
			data, ok := resp.Error.Data.(ToolErrorData)
			if !ok {
				t.Fatalf("data: got %T", resp.Error.Data)
			}
			if data.Kind != tt.wantKind {
				t.Errorf("kind: got %s, want %s", data.Kind, tt.wantKind)
			}
			if data.Detail == "" {
				t.Error("detail should not be empty")
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(&fakeAmbient{}, "dev")

	tests := []struct {
		name   string
		params string
	}{
		{"not an object", `"ambient_extract"`},
		{"arguments not an object", `{"name":"ambient_extract","arguments":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &MCPRequest{JSONRPC: "2.0", ID: 7, Method: "tools/call", Params: json.RawMessage(tt.params)}
			resp := s.handleRequest(context.Background(), req)
			if resp.Error == nil || resp.Error.Code != -32602 {
				t.Errorf("expected -32602, got %+v", resp.Error)
			}
		})
	}
}

func TestHandleToolsCall_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")

	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	var sent map[string]any
	action := ambient.LightActionFunc(func(_ context.Context, params map[string]any) error {
		sent = params
		return nil
	})
	svc := ambient.NewService(action, ambient.Options{Allow: ambient.AllowList{Dirs: []string{dir}}})
	s := New(svc, "dev")

	resp := s.handleRequest(context.Background(), toolCall(t, "ambient_turn_on", map[string]interface{}{
		"path":      path,
		"entity_id": "light.desk",
	}))
	toolText(t, resp)

	if sent == nil {
		t.Fatal("light action was not invoked")
	}
	rgb, ok := sent["rgb_color"].([]int)
	if !ok || len(rgb) != 3 || rgb[0] != 200 || rgb[1] != 40 || rgb[2] != 40 {
		t.Errorf("rgb_color: got %#v", sent["rgb_color"])
	}
	if _, ok := sent["brightness"]; !ok {
		t.Error("brightness should be sent for a non-black image")
	}
	if sent["entity_id"] != "light.desk" {
		t.Errorf("entity_id: got %v", sent["entity_id"])
	}
}
