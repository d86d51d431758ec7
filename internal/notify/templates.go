package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

// emailView is the data every template renders from. Amounts are
// preformatted so templates stay free of money logic.
type emailView struct {
	OrderID       string
	CustomerName  string
	CustomerEmail string
	Items         []string
	Subtotal      string
	Discount      string
	Taxes         string
	Shipping      string
	Total         string
	Address       []string
	SiteURL       string
}

func newEmailView(order *model.Order, siteURL string) emailView {
	money := func(d decimal.Decimal) string { return formatMoney(d, order.Currency) }

	items := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		line := fmt.Sprintf("%s x%d @ %s", it.Name, it.Quantity, money(it.Price))
		if it.Size != "" {
			line += " (" + it.Size + ")"
		}
		items = append(items, line)
	}

	name := order.ShippingAddress.FirstName
	if name == "" {
		name = "there"
	}

	v := emailView{
		OrderID:       order.OrderID,
		CustomerName:  name,
		CustomerEmail: order.Email,
		Items:         items,
		Subtotal:      money(order.Subtotal),
		Taxes:         money(order.Taxes),
		Shipping:      money(order.Shipping),
		Total:         money(order.Total),
		Address:       addressLines(order.ShippingAddress),
		SiteURL:       strings.TrimRight(siteURL, "/"),
	}
	if order.Discount.IsPositive() {
		v.Discount = money(order.Discount)
	}
	return v
}

func addressLines(a model.ShippingAddress) []string {
	locality := strings.TrimSpace(fmt.Sprintf("%s, %s %s", a.City, a.Province, a.Postal))
	candidates := []string{a.FullName(), a.Address1, a.Address2, strings.Trim(locality, ", "), a.Country, a.Notes}

	lines := make([]string, 0, len(candidates))
	for _, l := range candidates {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func formatMoney(d decimal.Decimal, currency string) string {
	switch strings.ToLower(currency) {
	case "", "cad":
		return "CA$" + d.StringFixed(2)
	case "usd":
		return "$" + d.StringFixed(2)
	default:
		return strings.ToUpper(currency) + " " + d.StringFixed(2)
	}
}

func render(name string, view emailView) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&hb, name+".html", view); err != nil {
		return "", "", fmt.Errorf("render %s.html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&tb, name+".txt", view); err != nil {
		return "", "", fmt.Errorf("render %s.txt: %w", name, err)
	}
	return hb.String(), tb.String(), nil
}
