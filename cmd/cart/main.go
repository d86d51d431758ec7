// Command cart keeps a local shopper cart and favorites list on disk and
// prices the cart against a running storefront API.
//
//	cart [-dir DIR] [-api URL] add ID NAME PRICE [QTY] [SIZE]
//	cart qty LINE_ID QTY
//	cart remove LINE_ID
//	cart clear
//	cart list
//	cart fav ID NAME PRICE
//	cart favs
//	cart quote [COUNTRY] [PROMO]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

var errUsage = errors.New("usage: cart [-dir DIR] [-api URL] add|qty|remove|clear|list|fav|favs|quote ...")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("cart", flag.ContinueOnError)
	dir := fs.String("dir", defaultDir(), "directory holding cart.json and favorites.json")
	api := fs.String("api", "http://localhost:8080", "storefront API base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "fav", "favs":
		favorites, err := cart.OpenFavorites(cart.NewJSONFilePersister[cart.Favorite](filepath.Join(*dir, "favorites.json")))
		if err != nil {
			return err
		}
		return runFavorites(favorites, cmd, rest, out)
	}

	store, err := cart.Open(cart.NewJSONFilePersister[cart.Item](filepath.Join(*dir, "cart.json")))
	if err != nil {
		return err
	}

	switch cmd {
	case "add":
		if len(rest) < 3 {
			return errUsage
		}
		price, err := decimal.NewFromString(rest[2])
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", rest[2], err)
		}
		item := cart.Item{ID: rest[0], Name: rest[1], UnitPrice: price, Quantity: 1}
		if len(rest) > 3 {
			if item.Quantity, err = strconv.Atoi(rest[3]); err != nil {
				return fmt.Errorf("invalid quantity %q: %w", rest[3], err)
			}
		}
		if len(rest) > 4 {
			item.Size = rest[4]
		}
		if err := store.AddItem(item); err != nil {
			return err
		}

	case "qty":
		if len(rest) != 2 {
			return errUsage
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", rest[1], err)
		}
		if err := store.UpdateQuantity(rest[0], qty); err != nil {
			return err
		}

	case "remove":
		if len(rest) != 1 {
			return errUsage
		}
		if err := store.RemoveItem(rest[0]); err != nil {
			return err
		}

	case "clear":
		if err := store.Clear(); err != nil {
			return err
		}

	case "list":

	case "quote":
		req := quoteRequest(store, rest)
		if len(req.Items) == 0 {
			return errors.New("cart is empty")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		quote, err := fetchQuote(ctx, http.DefaultClient, *api, req)
		if err != nil {
			return err
		}
		printQuote(out, quote)
		return nil

	default:
		return errUsage
	}

	printCart(out, store)
	return nil
}

func runFavorites(favorites *cart.Favorites, cmd string, rest []string, out io.Writer) error {
	if cmd == "fav" {
		if len(rest) != 3 {
			return errUsage
		}
		price, err := decimal.NewFromString(rest[2])
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", rest[2], err)
		}
		on, err := favorites.Toggle(cart.Favorite{ID: rest[0], Name: rest[1], Price: price})
		if err != nil {
			return err
		}
		if on {
			fmt.Fprintf(out, "added %s to favorites\n", rest[0])
		} else {
			fmt.Fprintf(out, "removed %s from favorites\n", rest[0])
		}
	}

	for _, f := range favorites.Items() {
		fmt.Fprintf(out, "%s\t%s\t%s\n", f.ID, f.Name, f.Price.StringFixed(2))
	}
	return nil
}

func quoteRequest(store *cart.Store, rest []string) model.QuoteRequest {
	req := model.QuoteRequest{}
	if len(rest) > 0 {
		req.Country = rest[0]
	}
	if len(rest) > 1 {
		req.PromoCode = rest[1]
	}
	for _, it := range store.Items() {
		req.Items = append(req.Items, model.QuoteItem{ID: it.ID, Quantity: it.Quantity, Size: it.Size})
	}
	return req
}

// fetchQuote asks the API to price the cart; local prices are informational.
func fetchQuote(ctx context.Context, client *http.Client, baseURL string, req model.QuoteRequest) (*pricing.Quote, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quote request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/checkout/quote", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr model.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("quote rejected (%d %s): %s", resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return nil, fmt.Errorf("quote rejected with status %d", resp.StatusCode)
	}

	var quote pricing.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	return &quote, nil
}

func printCart(out io.Writer, store *cart.Store) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, it := range store.Items() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.LineID(), it.Name, it.Quantity, it.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "\t%d item(s)\t\t%s\n", store.ItemCount(), store.Subtotal().StringFixed(2))
	_ = tw.Flush()
}

func printQuote(out io.Writer, q *pricing.Quote) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Subtotal\t%s\n", q.Subtotal.StringFixed(2))
	fmt.Fprintf(tw, "Discount\t-%s\n", q.Discount.StringFixed(2))
	fmt.Fprintf(tw, "Taxes\t%s\n", q.Taxes.StringFixed(2))
	fmt.Fprintf(tw, "Shipping\t%s\n", q.Shipping.StringFixed(2))
	fmt.Fprintf(tw, "Total\t%s\n", q.Total.StringFixed(2))
	_ = tw.Flush()
}

func defaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "storefront")
	}
	return ".storefront"
}
