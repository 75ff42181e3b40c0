package jsonpath

import "testing"

func TestExtractRecognizerResult(t *testing.T) {
	body := []byte(`{"result":["привет мир","second"],"emotions":[{"positive":0.9}],"status":200}`)

	if v, ok := Extract(body, "result[0]"); !ok || v != "привет мир" {
		t.Fatalf("expected first result, got %q (ok=%v)", v, ok)
	}
	if v, ok := Extract(body, "emotions[0].positive"); !ok || v != "0.9" {
		t.Fatalf("expected 0.9, got %q (ok=%v)", v, ok)
	}
	if v, ok := Extract(body, "status"); !ok || v != "200" {
		t.Fatalf("expected 200, got %q (ok=%v)", v, ok)
	}
}

func TestExtractEmptyResult(t *testing.T) {
	if v, ok := Extract([]byte(`{"result":[]}`), "result[0]"); ok {
		t.Fatalf("expected not found, got %q", v)
	}
	if _, ok := Extract([]byte(`{}`), "result[0]"); ok {
		t.Fatalf("expected not found for missing key")
	}
	if _, ok := Extract([]byte(`not json`), "result[0]"); ok {
		t.Fatalf("expected not found for invalid body")
	}
	if _, ok := Extract([]byte(`{"result":[{"a":1}]}`), "result[0]"); ok {
		t.Fatalf("expected not found for non-scalar value")
	}
}

func TestLookupNested(t *testing.T) {
	root := map[string]any{
		"data": map[string]any{
			"items": []any{
				map[string]any{"value": "a"},
				map[string]any{"value": "b"},
			},
		},
	}
	if v, ok := Lookup(root, "data.items[1].value"); !ok || v != "b" {
		t.Fatalf("expected b, got %v (ok=%v)", v, ok)
	}
	if _, ok := Lookup(root, "data.items[99].value"); ok {
		t.Fatalf("expected not found")
	}
}

func TestParseSegment(t *testing.T) {
	key, idxs, err := ParseSegment("foo[0][1]")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if key != "foo" || len(idxs) != 2 || idxs[0] != 0 || idxs[1] != 1 {
		t.Fatalf("unexpected parse result: key=%s idxs=%v", key, idxs)
	}
	for _, bad := range []string{"", "foo[", "foo[x]", "foo[]", "foo[0]x"} {
		if _, _, err := ParseSegment(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestTextDecodedValue(t *testing.T) {
	root := map[string]any{"result": []any{"один", "два"}}
	if v, ok := Text(root, "result[1]"); !ok || v != "два" {
		t.Fatalf("expected два, got %q (ok=%v)", v, ok)
	}
	if _, ok := Text(map[string]any{"result": []any{}}, "result[0]"); ok {
		t.Fatalf("expected not found for empty array")
	}
}
