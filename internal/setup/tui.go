// Package setup provides the interactive single-transaction entry form.
package setup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/skinvault/skinfolio/internal/domain"
	"github.com/skinvault/skinfolio/internal/importer"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	okStyle = lipgloss.NewStyle().
		Foreground(special).
		Bold(true).
		MarginTop(1)
)

// RunTUI walks the user through entering one transaction and submits it to
// the creation collaborator. Every field is validated before any submission
// is attempted, so a rejected form leaves no partial state behind.
func RunTUI(ctx context.Context, creator importer.TransactionCreator, defaultCommission float64, currency string) error {
	var (
		skinID        string
		kindStr       string
		quantityStr   string
		priceStr      string
		commissionStr = strconv.FormatFloat(defaultCommission, 'f', -1, 64)
		executedAtStr string
		confirm       bool
	)

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("SKINFOLIO TRANSACTION ENTRY"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Record a buy or sell for one skin.\n"))

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Skin ID").
				Description("Identifier of the skin position").
				Value(&skinID).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("skin must be selected")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("Buy", string(domain.KindBuy)),
					huh.NewOption("Sell", string(domain.KindSell)),
				).
				Value(&kindStr),
			huh.NewInput().
				Title("Quantity").
				Description("Whole number of items").
				Value(&quantityStr).
				Validate(func(s string) error {
					v, err := strconv.ParseInt(s, 10, 64)
					if err != nil || v <= 0 {
						return fmt.Errorf("quantity must be a positive integer")
					}
					return nil
				}),
			huh.NewInput().
				Title("Unit Price").
				Value(&priceStr).
				Validate(func(s string) error {
					v, err := decimal.NewFromString(s)
					if err != nil || v.IsNegative() {
						return fmt.Errorf("unit price must be a non-negative number")
					}
					return nil
				}),
			huh.NewInput().
				Title("Commission %").
				Description("Applied on sells only").
				Value(&commissionStr).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(s, 64)
					if err != nil || v < 0 || v >= 100 {
						return fmt.Errorf("commission must be in [0, 100)")
					}
					return nil
				}),
			huh.NewInput().
				Title("Executed At").
				Description("YYYY-MM-DD, empty for now").
				Value(&executedAtStr).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					_, err := time.Parse("2006-01-02", s)
					return err
				}),
			huh.NewConfirm().
				Title("Submit transaction?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Aborted, nothing submitted."))
		return nil
	}

	quantity, _ := strconv.ParseInt(quantityStr, 10, 64)
	price, _ := decimal.NewFromString(priceStr)
	commission, _ := decimal.NewFromString(commissionStr)
	var executedAt time.Time
	if executedAtStr != "" {
		executedAt, _ = time.Parse("2006-01-02", executedAtStr)
	}

	req := domain.TransactionRequest{
		SkinID:            skinID,
		Kind:              domain.Kind(kindStr),
		Quantity:          quantity,
		UnitPrice:         price,
		CommissionPercent: commission,
		ExecutedAt:        executedAt,
		Currency:          currency,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	tx, err := creator.Create(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Recorded %s of %d x %s at %s (net %s %s)",
		tx.Kind, tx.Quantity, tx.SkinID, tx.UnitPrice.String(), tx.NetTotal.String(), tx.Currency)))
	return nil
}
