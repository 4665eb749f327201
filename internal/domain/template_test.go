package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMergeTemplate(t *testing.T) {
	tests := []struct {
		name   string
		tpl    string
		fields map[string]string
		want   string
	}{
		{
			name:   "global replacement",
			tpl:    "{{TITRE}} / {{TITRE}}",
			fields: map[string]string{"TITRE": "Devis"},
			want:   "Devis / Devis",
		},
		{
			name:   "missing key becomes empty",
			tpl:    "<p>{{NOTES}}</p>{{INCONNU}}",
			fields: map[string]string{"NOTES": "ok"},
			want:   "<p>ok</p>",
		},
		{
			name:   "values are not re-expanded",
			tpl:    "{{NOTES}}",
			fields: map[string]string{"NOTES": "{{TITRE}}", "TITRE": "x"},
			want:   "{{TITRE}}",
		},
		{
			name:   "keys are matched verbatim",
			tpl:    "[{{ TITRE }}] {TITRE}",
			fields: map[string]string{"TITRE": "x"},
			want:   "[] {TITRE}",
		},
		{
			name:   "lowercase and free-form keys",
			tpl:    "{{NUM_DEVIS}}|{{nom}}|{{A-B}}|{{X}}",
			fields: map[string]string{"NUM_DEVIS": "DV", "nom": "n"},
			want:   "DV|n||",
		},
		{
			name:   "user template leftovers are blanked",
			tpl:    "<p>{{Nom-client}}</p>",
			fields: map[string]string{"NOM": "x"},
			want:   "<p></p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeTemplate(tt.tpl, tt.fields); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDocumentFields(t *testing.T) {
	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	doc := &FinancialDocument{
		Type:       DocumentQuote,
		Number:     "DV-2025-001",
		Title:      "Sortie <Rambouillet>",
		Date:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		DueDate:    &due,
		Amount:     decimal.RequireFromString("1234.5"),
		AmountPaid: decimal.NewFromInt(234),
		Recipient:  Recipient{Name: "Comité des fêtes"},
		LineItems: []LineItem{
			{Description: "Autocar & chauffeur", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("617.25")},
		},
	}

	fields := DocumentFields(doc)

	if fields["NUM_DEVIS"] != "DV-2025-001" {
		t.Fatalf("expected NUM_DEVIS, got %q", fields["NUM_DEVIS"])
	}
	if _, ok := fields["NUM_FACTURE"]; ok {
		t.Fatal("quote must not expose NUM_FACTURE")
	}
	if fields["TITRE"] != "Sortie &lt;Rambouillet&gt;" {
		t.Fatalf("title not escaped: %q", fields["TITRE"])
	}
	if fields["MONTANT"] != "1 234,50 €" {
		t.Fatalf("unexpected MONTANT %q", fields["MONTANT"])
	}
	if fields["RESTE_A_PAYER"] != "1 000,50 €" {
		t.Fatalf("unexpected RESTE_A_PAYER %q", fields["RESTE_A_PAYER"])
	}
	if fields["DATE"] != "02/01/2025" || fields["ECHEANCE"] != "01/02/2025" {
		t.Fatalf("unexpected dates %q %q", fields["DATE"], fields["ECHEANCE"])
	}
	if !strings.Contains(fields["DEVIS_LINES_TR"], "<td>Autocar &amp; chauffeur</td>") ||
		!strings.Contains(fields["DEVIS_LINES_TR"], "<td>1 234,50 €</td>") {
		t.Fatalf("unexpected line rows %q", fields["DEVIS_LINES_TR"])
	}

	merged := MergeTemplate(DefaultDocumentTemplate, fields)
	if strings.Contains(merged, "{{") {
		t.Fatal("default template left unresolved tokens")
	}
}

func TestDocumentFieldsEscapesNumber(t *testing.T) {
	doc := &FinancialDocument{
		Type:   DocumentInvoice,
		Number: `FA-<script>"1"</script>`,
	}

	fields := DocumentFields(doc)

	want := "FA-&lt;script&gt;&#34;1&#34;&lt;/script&gt;"
	if fields["NUM_FACTURE"] != want || fields["NUMERO"] != want {
		t.Fatalf("number not escaped: %q %q", fields["NUM_FACTURE"], fields["NUMERO"])
	}
}

func TestFormatEuro(t *testing.T) {
	tests := map[string]string{
		"0":          "0,00 €",
		"12.5":       "12,50 €",
		"999.999":    "1 000,00 €",
		"1234567.89": "1 234 567,89 €",
		"-42":        "-42,00 €",
	}

	for in, want := range tests {
		if got := FormatEuro(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatEuro(%s): expected %q, got %q", in, want, got)
		}
	}
}
