// Package insight 提供响应归一化单元测试
package insight

import (
	"reflect"
	"testing"

	"github.com/datalens-ai/datalens/internal/model"
)

// ========== Normalize 基本形状 测试 ==========

func TestNormalize_JSONStringWidget(t *testing.T) {
	raw := `{"vis_type":"chart","payload":{"type":"Column","data":[1,2,3]}}`

	res := Normalize(raw)

	if !res.IsDashboard() {
		t.Fatalf("expected dashboard, got text %q", res.Text)
	}
	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1", len(res.Widgets))
	}
	w := res.Widgets[0]
	if w.VisType != "chart" {
		t.Errorf("vis_type = %q, want 'chart'", w.VisType)
	}
	if w.Payload["type"] != "bar" {
		t.Errorf("payload.type = %v, want 'bar'", w.Payload["type"])
	}
	if !reflect.DeepEqual(w.Payload["data"], []any{float64(1), float64(2), float64(3)}) {
		t.Errorf("payload.data = %v", w.Payload["data"])
	}
}

func TestNormalize_KPIChartAlias(t *testing.T) {
	raw := map[string]any{
		"kpi":   map[string]any{"value": 42},
		"chart": map[string]any{"vis_type": "chart", "payload": map[string]any{"type": "pie"}},
	}

	res := Normalize(raw)

	if len(res.Widgets) != 2 {
		t.Fatalf("widgets = %d, want 2", len(res.Widgets))
	}
	// kpi 在前
	if res.Widgets[0].Payload["value"] != 42 {
		t.Errorf("first widget payload = %v, want kpi value 42", res.Widgets[0].Payload)
	}
	if res.Widgets[1].VisType != "chart" {
		t.Errorf("second widget vis_type = %q, want 'chart'", res.Widgets[1].VisType)
	}
	if res.Widgets[1].Payload["type"] != "pie" {
		t.Errorf("chart type = %v, want 'pie'", res.Widgets[1].Payload["type"])
	}
}

func TestNormalize_PlainText(t *testing.T) {
	res := Normalize("The average is 7.5")

	if res.IsDashboard() {
		t.Fatalf("expected plain text, got %d widgets", len(res.Widgets))
	}
	if res.Text != "The average is 7.5" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestNormalize_Envelope(t *testing.T) {
	raw := map[string]any{
		"type":  "string",
		"value": `[{"vis_type":"kpi","payload":{"title":"Total","value":100}}]`,
	}

	res := Normalize(raw)

	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1", len(res.Widgets))
	}
	if res.Widgets[0].VisType != "kpi" {
		t.Errorf("vis_type = %q, want 'kpi'", res.Widgets[0].VisType)
	}
	if res.Widgets[0].Payload["title"] != "Total" {
		t.Errorf("payload.title = %v", res.Widgets[0].Payload["title"])
	}
}

func TestNormalize_TextEnvelope(t *testing.T) {
	// 引擎把整个信封作为一段文本返回，解码后还要再剥一层
	raw := `{"type": "string", "value": "[{\"vis_type\":\"kpi\",\"payload\":{\"value\":42}}]"}`

	res := Normalize(raw)

	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1, text = %q", len(res.Widgets), res.Text)
	}
	w := res.Widgets[0]
	if w.VisType != "kpi" {
		t.Errorf("vis_type = %q, want 'kpi'", w.VisType)
	}
	if w.Payload["value"] != float64(42) {
		t.Errorf("payload.value = %v, want 42", w.Payload["value"])
	}
	if _, leaked := w.Payload["type"]; leaked {
		t.Error("envelope keys must not leak into the widget payload")
	}
}

func TestNormalize_TextEnvelopePlainValue(t *testing.T) {
	raw := `{"type": "string", "value": "Revenue grew 12% quarter over quarter."}`

	res := Normalize(raw)

	if res.IsDashboard() {
		t.Fatalf("expected plain text, got %d widgets", len(res.Widgets))
	}
	if res.Text != "Revenue grew 12% quarter over quarter." {
		t.Errorf("text = %q", res.Text)
	}
}

func TestNormalize_CodeFence(t *testing.T) {
	raw := "```json\n{\"vis_type\":\"chart\",\"payload\":{\"data\":[5]}}\n```"

	res := Normalize(raw)

	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1, text = %q", len(res.Widgets), res.Text)
	}
	// type 缺省补 bar
	if res.Widgets[0].Payload["type"] != "bar" {
		t.Errorf("payload.type = %v, want default 'bar'", res.Widgets[0].Payload["type"])
	}
}

func TestNormalize_PythonLiteral(t *testing.T) {
	// 单引号字面量走修复路径
	raw := "{'vis_type': 'kpi', 'payload': {'value': 9}}"

	res := Normalize(raw)

	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1, text = %q", len(res.Widgets), res.Text)
	}
	if res.Widgets[0].VisType != "kpi" {
		t.Errorf("vis_type = %q, want 'kpi'", res.Widgets[0].VisType)
	}
}

func TestNormalize_GenericTypeMap(t *testing.T) {
	raw := map[string]any{"type": "bar", "data": []any{1, 2}}

	res := Normalize(raw)

	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1", len(res.Widgets))
	}
	if res.Widgets[0].VisType != "chart" {
		t.Errorf("vis_type = %q, want 'chart'", res.Widgets[0].VisType)
	}
	// payload 为整个映射
	if res.Widgets[0].Payload["type"] != "bar" {
		t.Errorf("payload.type = %v", res.Widgets[0].Payload["type"])
	}
}

func TestNormalize_GenericKPIMap(t *testing.T) {
	raw := map[string]any{"type": "kpi", "value": 3.14}

	res := Normalize(raw)

	if len(res.Widgets) != 1 || res.Widgets[0].VisType != "kpi" {
		t.Fatalf("got %+v", res)
	}
}

func TestNormalize_ScalarPayload(t *testing.T) {
	raw := []any{map[string]any{"vis_type": "kpi", "payload": 42}}

	res := Normalize(raw)

	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1", len(res.Widgets))
	}
	p := res.Widgets[0].Payload
	if p["value"] != 42 {
		t.Errorf("payload = %v, want {value: 42}", p)
	}
	if _, doubled := p["payload"]; doubled {
		t.Error("scalar payload must not nest under a payload key")
	}
}

func TestNormalize_ScalarListElement(t *testing.T) {
	res := Normalize([]any{"just a string"})

	if len(res.Widgets) != 1 {
		t.Fatalf("widgets = %d, want 1", len(res.Widgets))
	}
	if res.Widgets[0].VisType != "kpi" {
		t.Errorf("vis_type = %q, want 'kpi'", res.Widgets[0].VisType)
	}
	if res.Widgets[0].Payload["value"] != "just a string" {
		t.Errorf("payload.value = %v", res.Widgets[0].Payload["value"])
	}
}

// ========== 总体性质 测试 ==========

func TestNormalize_Totality(t *testing.T) {
	inputs := []any{
		"plain prose answer",
		`{"vis_type":"kpi","payload":{"value":1}}`,
		"{'kpi': {'value': 2}}",
		map[string]any{"vis_type": "chart", "payload": map[string]any{"type": "line"}},
		[]any{map[string]any{"vis_type": "kpi", "payload": map[string]any{"value": 5}}},
		map[string]any{"kpi": map[string]any{"value": 1}},
		"}}}garbage{{{",
		nil,
		42,
		[]any{},
		map[string]any{},
	}

	for i, in := range inputs {
		res := Normalize(in)
		if !res.IsDashboard() && res.Text == "" && in != nil {
			// 空文本仅在输入本身为空时允许
			if s, ok := in.(string); !ok || s != "" {
				t.Errorf("input %d: empty result for %v", i, in)
			}
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := `{"kpi": {"value": 42}, "chart": {"type": "Column"}}`

	a := Normalize(raw)
	b := Normalize(raw)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different outputs:\n%+v\n%+v", a, b)
	}
}

// ========== 图表后处理 测试 ==========

func TestPostProcessChart_ColumnAlias(t *testing.T) {
	w := model.Widget{VisType: "chart", Payload: map[string]any{"type": "Column"}}

	postProcessChart(&w)

	if w.Payload["type"] != "bar" {
		t.Errorf("type = %v, want 'bar'", w.Payload["type"])
	}
}

func TestPostProcessChart_Idempotent(t *testing.T) {
	w := model.Widget{VisType: "chart", Payload: map[string]any{"type": "column", "data": []any{1}}}

	postProcessChart(&w)
	first := w.Payload["type"]
	postProcessChart(&w)

	if w.Payload["type"] != first || first != "bar" {
		t.Errorf("post-processing not idempotent: %v then %v", first, w.Payload["type"])
	}
}

func TestPostProcessChart_IgnoresKPI(t *testing.T) {
	w := model.Widget{VisType: "kpi", Payload: map[string]any{"value": 1}}

	postProcessChart(&w)

	if _, ok := w.Payload["type"]; ok {
		t.Error("kpi widget should not gain a chart type")
	}
}

func TestNormalizeWidgets_Idempotent(t *testing.T) {
	in := []model.Widget{
		{VisType: "chart", Payload: map[string]any{"type": "COLUMN"}},
		{VisType: "kpi", Payload: map[string]any{"value": 7}},
	}

	once := NormalizeWidgets(in)
	twice := NormalizeWidgets(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("NormalizeWidgets not idempotent:\n%+v\n%+v", once, twice)
	}
	if once[0].Payload["type"] != "bar" {
		t.Errorf("chart type = %v, want 'bar'", once[0].Payload["type"])
	}
}
