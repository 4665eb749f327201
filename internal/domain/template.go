package domain

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// MergeTemplate replaces every {{KEY}} token of tpl with fields[KEY].
// Replacement is literal and global and KEY is matched exactly, case and
// spacing included. Tokens without a value become empty.
func MergeTemplate(tpl string, fields map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(token string) string {
		return fields[token[2:len(token)-2]]
	})
}

// DocumentFields builds the placeholder mapping of a document.
func DocumentFields(d *FinancialDocument) map[string]string {
	numberKey := "NUM_FACTURE"
	if d.Type == DocumentQuote {
		numberKey = "NUM_DEVIS"
	}

	due := ""
	if d.DueDate != nil {
		due = FormatDate(*d.DueDate)
	}

	return map[string]string{
		numberKey:                html.EscapeString(d.Number),
		"NUMERO":                 html.EscapeString(d.Number),
		"TYPE":                   documentLabel(d.Type),
		"TITRE":                  html.EscapeString(d.Title),
		"DESCRIPTION":            html.EscapeString(d.Description),
		"MONTANT":                FormatEuro(d.Amount),
		"MONTANT_PAYE":           FormatEuro(d.AmountPaid),
		"RESTE_A_PAYER":          FormatEuro(d.Remaining()),
		"DATE":                   FormatDate(d.Date),
		"ECHEANCE":               due,
		"STATUT":                 string(d.Status),
		"DESTINATAIRE_NOM":       html.EscapeString(d.Recipient.Name),
		"DESTINATAIRE_ADRESSE":   html.EscapeString(d.Recipient.Address),
		"DESTINATAIRE_EMAIL":     html.EscapeString(d.Recipient.Email),
		"DESTINATAIRE_TELEPHONE": html.EscapeString(d.Recipient.Phone),
		"NOTES":                  html.EscapeString(d.Notes),
		"DEVIS_LINES_TR":         lineRows(d.LineItems),
	}
}

func documentLabel(t DocumentType) string {
	if t == DocumentQuote {
		return "Devis"
	}

	return "Facture"
}

func lineRows(items []LineItem) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("<tr><td>")
		b.WriteString(html.EscapeString(it.Description))
		b.WriteString("</td><td>")
		b.WriteString(it.Quantity.String())
		b.WriteString("</td><td>")
		b.WriteString(FormatEuro(it.UnitPrice))
		b.WriteString("</td><td>")
		b.WriteString(FormatEuro(it.LineTotal()))
		b.WriteString("</td></tr>")
	}

	return b.String()
}

// FormatDate renders a date the French way (31/12/2024).
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("02/01/2006")
}

// FormatEuro renders an amount as "1 234,50 €".
func FormatEuro(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}

	return sign + grouped.String() + "," + frac + " €"
}

// DefaultDocumentTemplate is used when neither the request nor the document
// carries HTML.
const DefaultDocumentTemplate = `<!doctype html>
<html lang="fr">
<head>
  <meta charset="utf-8" />
  <title>{{TYPE}} {{NUMERO}}</title>
  <style>
    body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1f2937; padding: 32px; }
    .header { display: flex; justify-content: space-between; border-bottom: 2px solid #b91c1c; padding-bottom: 12px; }
    table { width: 100%; border-collapse: collapse; margin-top: 24px; }
    th, td { border-bottom: 1px solid #e5e7eb; padding: 6px 8px; text-align: left; }
    .totals { margin-top: 16px; text-align: right; }
  </style>
</head>
<body>
  <div class="header">
    <div>
      <strong>RétroBus Essonne</strong><br />
      Association loi 1901
    </div>
    <div>
      <strong>{{TYPE}} n° {{NUMERO}}</strong><br />
      Date : {{DATE}}<br />
      Échéance : {{ECHEANCE}}
    </div>
  </div>
  <p>
    <strong>{{DESTINATAIRE_NOM}}</strong><br />
    {{DESTINATAIRE_ADRESSE}}<br />
    {{DESTINATAIRE_EMAIL}} {{DESTINATAIRE_TELEPHONE}}
  </p>
  <h2>{{TITRE}}</h2>
  <p>{{DESCRIPTION}}</p>
  <table>
    <thead><tr><th>Désignation</th><th>Qté</th><th>P.U.</th><th>Total</th></tr></thead>
    <tbody>{{DEVIS_LINES_TR}}</tbody>
  </table>
  <div class="totals">
    Total : {{MONTANT}}<br />
    Déjà réglé : {{MONTANT_PAYE}}<br />
    <strong>Reste à payer : {{RESTE_A_PAYER}}</strong>
  </div>
  <p>{{NOTES}}</p>
</body>
</html>`
