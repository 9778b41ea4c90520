package gateway

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"golang.org/x/text/currency"
)

// Field is one hidden input of the hosted-page form.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Redirect is the form post that hands the customer to the hosted payment page.
type Redirect struct {
	Reference string  `json:"reference"`
	Action    string  `json:"action"`
	Method    string  `json:"method"`
	Fields    []Field `json:"fields"`
}

// numericCodes are the ISO 4217 numeric codes the hosted page expects.
var numericCodes = map[string]string{
	"NGN": "566",
	"USD": "840",
	"GBP": "826",
	"EUR": "978",
	"GHS": "936",
	"KES": "404",
	"ZAR": "710",
}

func currencyCode(cur currency.Unit) string {
	if code, ok := numericCodes[cur.String()]; ok {
		return code
	}
	return cur.String()
}

func (b *Bridge) redirect(s Session, cur currency.Unit) Redirect {
	return Redirect{
		Reference: s.Reference,
		Action:    b.cfg.Action,
		Method:    "POST",
		Fields: []Field{
			{"merchant_code", b.cfg.MerchantCode},
			{"pay_item_id", b.cfg.PayItemID},
			{"txn_ref", s.Reference},
			{"amount", fmt.Sprintf("%d", s.AmountMinor)},
			{"currency", currencyCode(cur)},
			{"site_redirect_url", b.cfg.ReturnURL},
			{"cust_email", s.Identity.Email},
			{"cust_name", s.Identity.FullName()},
			{"pay_method", b.cfg.PayMethod},
			{"mode", b.cfg.Mode},
		},
	}
}

// Values returns the fields as form values.
func (r Redirect) Values() url.Values {
	v := url.Values{}
	for _, f := range r.Fields {
		v.Set(f.Name, f.Value)
	}
	return v
}

var formTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()">
<p>Redirecting you to the secure payment page...</p>
<form method="POST" action="{{.Action}}" target="_self">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// HTML renders a page that submits the form in the same window as soon as it loads.
func (r Redirect) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("render redirect form: %w", err)
	}
	return buf.Bytes(), nil
}
