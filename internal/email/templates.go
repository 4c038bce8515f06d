package email

import (
	"bytes"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
	"time"
)

// WithdrawalConfirmationVars alimenta el email de confirmación de retiro.
type WithdrawalConfirmationVars struct {
	StoreName string
	Amount    string // ya formateado, ej: "NGN 5,000.00"
	Link      string
	ExpiresAt time.Time
}

const withdrawalSubject = "Confirm your withdrawal request"

var (
	withdrawalText = texttpl.Must(texttpl.New("withdrawal_txt").Parse(
		`A withdrawal of {{.Amount}} was requested{{if .StoreName}} for {{.StoreName}}{{end}}.

Confirm it here: {{.Link}}

The link expires on {{.ExpiresAt.Format "2006-01-02 15:04 MST"}}. If you did not request this, ignore this email.
`))

	withdrawalHTML = htmltpl.Must(htmltpl.New("withdrawal_html").Parse(
		`<p>A withdrawal of <strong>{{.Amount}}</strong> was requested{{if .StoreName}} for {{.StoreName}}{{end}}.</p>
<p><a href="{{.Link}}">Confirm withdrawal</a></p>
<p>The link expires on {{.ExpiresAt.Format "2006-01-02 15:04 MST"}}. If you did not request this, ignore this email.</p>
`))
)

// WithdrawalConfirmation arma el mensaje con el link de confirmación.
func WithdrawalConfirmation(to string, v WithdrawalConfirmationVars) (Message, error) {
	var txt, html bytes.Buffer
	if err := withdrawalText.Execute(&txt, v); err != nil {
		return Message{}, fmt.Errorf("email: render text: %w", err)
	}
	if err := withdrawalHTML.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("email: render html: %w", err)
	}
	return Message{To: to, Subject: withdrawalSubject, Text: txt.String(), HTML: html.String()}, nil
}
