package insight

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/datalens-ai/datalens/internal/model"
)

// Result 归一化终态：Widgets 非空为 dashboard，否则 Text 为纯文本回答
type Result struct {
	Widgets []model.Widget
	Text    string
}

// IsDashboard 是否产出了可渲染组件
func (r Result) IsDashboard() bool {
	return len(r.Widgets) > 0
}

// chartTypeAliases 图表类型别名表，可扩展
var chartTypeAliases = map[string]string{
	"column": "bar",
}

var codeFencePattern = regexp.MustCompile("```json|```")

// Normalize 将引擎的任意原始结果归一为组件列表或纯文本
// 单向流水线：信封解包 → 解码 → 别名展开 → 形状收敛 → 图表后处理。
// 对任何输入都不报错，最坏情况落到纯文本终态；
// 无隐藏状态，相同输入必得相同输出。
func Normalize(raw any) Result {
	// 信封解包：引擎按约定包了一层 {type:"string", value:...}
	raw, _ = unwrapEnvelope(raw)

	data, text, ok := toStructured(raw)
	if !ok {
		return Result{Text: text}
	}

	// 引擎整体回复是文本时，信封要等解码后才现形：
	// 再剥一层并把 value 里的 JSON 字符串解出来
	if inner, found := unwrapEnvelope(data); found {
		data, text, ok = toStructured(inner)
		if !ok {
			return Result{Text: text}
		}
	}

	// 别名展开：{kpi:..., chart:...} 改写为有序列表，kpi 在前
	if m, ok := data.(map[string]any); ok {
		kpi, hasKPI := m["kpi"]
		chart, hasChart := m["chart"]
		if hasKPI || hasChart {
			list := make([]any, 0, 2)
			if hasKPI {
				list = append(list, kpi)
			}
			if hasChart {
				list = append(list, chart)
			}
			data = list
		}
	}

	// 形状收敛
	var widgets []model.Widget
	switch v := data.(type) {
	case []any:
		widgets = make([]model.Widget, 0, len(v))
		for _, item := range v {
			widgets = append(widgets, coerceWidget(item))
		}
	case map[string]any:
		if _, ok := v["vis_type"]; ok {
			widgets = []model.Widget{coerceWidget(v)}
		} else if t, ok := v["type"]; ok {
			visType := "chart"
			if t == "kpi" {
				visType = "kpi"
			}
			widgets = []model.Widget{{VisType: visType, Payload: v}}
		} else {
			return Result{Text: fmt.Sprint(v)}
		}
	default:
		return Result{Text: fmt.Sprint(v)}
	}

	if len(widgets) == 0 {
		return Result{Text: fmt.Sprint(data)}
	}

	for i := range widgets {
		postProcessChart(&widgets[i])
	}
	return Result{Widgets: widgets}
}

// NormalizeWidgets 对已是组件列表的输入归一，幂等入口
func NormalizeWidgets(widgets []model.Widget) []model.Widget {
	out := make([]model.Widget, len(widgets))
	copy(out, widgets)
	for i := range out {
		postProcessChart(&out[i])
	}
	return out
}

// unwrapEnvelope 剥掉 {type:"string", value:...} 信封
// 第二个返回值指示是否剥掉了一层
func unwrapEnvelope(v any) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, false
	}
	t, hasType := m["type"]
	value, hasValue := m["value"]
	if !hasType || !hasValue || t != "string" {
		return v, false
	}
	return value, true
}

// toStructured 把任意值收敛为映射或序列
// 收敛失败时返回清理后的文本作纯文本终态
func toStructured(v any) (data any, text string, ok bool) {
	if isStructured(v) {
		return v, "", true
	}
	text = stripCodeFence(fmt.Sprint(v))
	decoded, ok := decodeStructured(text)
	if !ok {
		return nil, text, false
	}
	return decoded, "", true
}

// stripCodeFence 去掉包裹结果的 markdown 代码栏
func stripCodeFence(s string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(s, ""))
}

// decodeStructured 文本解码：先严格 JSON，再经 jsonrepair 兜底
// 修复路径接近 Python 字面量（单引号、尾逗号、裸键）这类引擎常见输出；
// 两条路都必须解出映射或序列，标量一律回落纯文本终态
func decodeStructured(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		if isStructured(v) {
			return v, true
		}
		return nil, false
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, false
	}
	if !isStructured(v) {
		return nil, false
	}
	return v, true
}

func isStructured(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// coerceWidget 列表元素收敛为组件
func coerceWidget(item any) model.Widget {
	m, ok := item.(map[string]any)
	if !ok {
		// 标量元素包成 kpi
		return model.Widget{VisType: "kpi", Payload: map[string]any{"value": item}}
	}

	visType := ""
	if vt, ok := m["vis_type"].(string); ok {
		visType = strings.ToLower(vt)
	}

	if rawPayload, hasPayload := m["payload"]; hasPayload {
		if payload, ok := rawPayload.(map[string]any); ok {
			return model.Widget{VisType: visType, Payload: payload}
		}
		// 标量 payload 原样保留
		return model.Widget{VisType: visType, Payload: map[string]any{"value": rawPayload}}
	}

	// 没有独立 payload 时，除 vis_type 外的键整体作为 payload
	payload := make(map[string]any, len(m))
	for k, v := range m {
		if k != "vis_type" {
			payload[k] = v
		}
	}
	return model.Widget{VisType: visType, Payload: payload}
}

// postProcessChart 图表组件后处理，幂等：
// type 缺省为 bar，统一小写，再走别名表
func postProcessChart(w *model.Widget) {
	if w.VisType != "chart" || w.Payload == nil {
		return
	}

	chartType := "bar"
	if t, ok := w.Payload["type"]; ok {
		chartType = strings.ToLower(fmt.Sprint(t))
	}
	if alias, ok := chartTypeAliases[chartType]; ok {
		chartType = alias
	}
	w.Payload["type"] = chartType
}
