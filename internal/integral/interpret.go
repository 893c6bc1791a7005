package integral

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is where the evaluation service listens unless configured.
const DefaultBaseURL = "http://localhost:8000"

var (
	responsiveMargin = json.RawMessage(`{"l":50,"r":20,"t":40,"b":50}`)
	responsiveConfig = json.RawMessage(`{"responsive":true}`)
)

// Interpreter turns service replies into Results. BaseURL resolves relative
// plot paths.
type Interpreter struct {
	BaseURL string
}

// NewInterpreter returns an Interpreter for baseURL, or DefaultBaseURL when empty.
func NewInterpreter(baseURL string) *Interpreter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Interpreter{BaseURL: baseURL}
}

// Interpret reads one reply. Exactly one of the returns is meaningful: a
// non-nil AppError means the submission failed.
func (in *Interpreter) Interpret(status int, body []byte) (Result, *AppError) {
	if status < 200 || status > 299 {
		return Result{}, ClassifyError(failureMessage(body))
	}
	if !gjson.ValidBytes(body) {
		return Result{}, TransportFailure()
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return Result{}, TransportFailure()
	}

	res := Result{
		Value: readValue(doc),
		Plot:  in.readPlot(doc.Get("grafica")),
		Latex: doc.Get("expresion_latex").String(),
	}

	if msg := doc.Get("error"); msg.Type == gjson.String && strings.TrimSpace(msg.Str) != "" {
		appErr := ClassifyError(msg.Str)
		if res.Value != nil && appErr.Category.IsWarning() {
			res.Warning = appErr
			return res, nil
		}
		return Result{}, appErr
	}
	return res, nil
}

// readValue prefers valor over resultado. Only JSON numbers count.
func readValue(doc gjson.Result) *float64 {
	for _, key := range []string{"valor", "resultado"} {
		if field := doc.Get(key); field.Type == gjson.Number {
			v := field.Float()
			return &v
		}
	}
	return nil
}

func (in *Interpreter) readPlot(field gjson.Result) *PlotArtifact {
	switch {
	case field.Type == gjson.String:
		if strings.TrimSpace(field.Str) == "" {
			return nil
		}
		return ImageRef(in.ResolvePlotURL(field.Str))
	case field.IsObject():
		data := field.Get("data")
		if !data.Exists() || data.Type == gjson.Null {
			return nil
		}
		return &PlotArtifact{
			Kind:   PlotInteractive,
			Data:   json.RawMessage(data.Raw),
			Layout: responsiveLayout(field.Get("layout")),
			Config: responsiveConfig,
		}
	default:
		return nil
	}
}

// ResolvePlotURL turns a plot path from the service into an absolute URL.
// Absolute http(s) URLs and protocol-relative "//host/path" URLs are kept as
// they are.
func (in *Interpreter) ResolvePlotURL(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if strings.HasPrefix(fragment, "//") {
		return fragment
	}
	fragment = strings.ReplaceAll(fragment, `\`, "/")
	lower := strings.ToLower(fragment)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return fragment
	}
	base := in.BaseURL
	if strings.TrimSpace(base) == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(fragment, "/")
}

// responsiveLayout drops fixed sizes so the chart follows its container.
func responsiveLayout(layout gjson.Result) json.RawMessage {
	fields := map[string]json.RawMessage{}
	if layout.IsObject() {
		layout.ForEach(func(key, value gjson.Result) bool {
			fields[key.String()] = json.RawMessage(value.Raw)
			return true
		})
	}
	delete(fields, "width")
	delete(fields, "height")
	fields["autosize"] = json.RawMessage("true")
	fields["margin"] = responsiveMargin

	out, err := json.Marshal(fields)
	if err != nil {
		return json.RawMessage(`{"autosize":true}`)
	}
	return out
}

// failureMessage pulls the service's explanation out of an error body.
// FastAPI validation errors carry a list of {msg} objects under detail.
func failureMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	doc := gjson.ParseBytes(body)

	detail := doc.Get("detail")
	switch {
	case detail.Type == gjson.String && strings.TrimSpace(detail.Str) != "":
		return detail.Str
	case detail.IsArray():
		var msgs []string
		for _, item := range detail.Array() {
			if msg := item.Get("msg").String(); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if msg := doc.Get("error"); msg.Type == gjson.String {
		return msg.Str
	}
	return ""
}
