// Command storefront drives a shopper session against the marketplace API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"produce-marketplace/internal/config"
	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"
	"produce-marketplace/internal/storefront/apiclient"
	"produce-marketplace/internal/storefront/cart"
	"produce-marketplace/internal/storefront/checkout"
	"produce-marketplace/internal/storefront/payment"
	"produce-marketplace/internal/storefront/session"
	"produce-marketplace/internal/storefront/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	guestCartTTL = 30 * 24 * time.Hour
	pollInterval = 2 * time.Second
)

const usage = `usage: storefront [-token T] <command> [args]

commands:
  products                          list the catalog
  cart                              show the cart
  add <product-id> [quantity]       add a product (default 1)
  set <product-id> <quantity>       change a quantity, 0 removes
  remove <product-id>               remove a product
  clear                             empty the cart
  login <token>                     sign in, merging the guest cart
  logout                            sign out and discard the cart
  addresses                         list delivery addresses
  checkout -address ID [-payment cod|online] [-wait]
  order <order-id> [-wait]          show an order, optionally wait for payment
  simulate-payment <order-id> [-fail]
`

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	api      *apiclient.Client
	tokens   *session.TokenStore
	store    *cart.Store
	checkout *checkout.Orchestrator
	out      io.Writer
}

func main() {
	token := flag.String("token", "", "bearer token for this run only")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger, err := logging.New("storefront", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, *token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, token string) (*app, error) {
	api := apiclient.New(cfg.Storefront.APIURL, cfg.Storefront.Timeout, apiclient.WithLogger(logger))

	dir := filepath.Dir(cfg.Storefront.GuestFile)
	var slot storage.Slot = storage.NewFileSlot(cfg.Storefront.GuestFile)
	if addr := cfg.Storefront.GuestRedisAddr; addr != "" {
		guestID := cfg.Storefront.GuestID
		if guestID == "" {
			var err error
			if guestID, err = session.GuestID(ctx, storage.NewFileSlot(filepath.Join(dir, "guest_id"))); err != nil {
				return nil, err
			}
		}
		slot = storage.NewRedisSlot(redis.NewClient(&redis.Options{Addr: addr}), guestID, guestCartTTL)
	}
	tokens := session.NewTokenStore(storage.NewFileSlot(filepath.Join(dir, "session")))

	id, err := tokens.Identity(ctx, time.Now())
	if err != nil {
		logger.Warn("session unreadable, continuing as guest", zap.Error(err))
	}
	if token != "" {
		if id, err = session.IdentityFromToken(token, time.Now()); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, logger: logger, api: api, tokens: tokens, out: os.Stdout}
	store, err := cart.New(ctx, session.NewResolver(storage.NewGuest(slot), api), id,
		cart.WithLogger(logger),
		cart.WithNotifier(cart.NotifierFunc(a.notify)),
	)
	if err != nil {
		return nil, err
	}
	provider, err := payment.NewHostedCheckout(cfg.Storefront.PaymentURL)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.checkout = checkout.New(store, api, provider, logger)
	return a, nil
}

func (a *app) notify(e cart.Event) {
	switch e.Kind {
	case cart.EventDegraded:
		fmt.Fprintf(os.Stderr, "warning: cart saved in memory only (%v)\n", e.Err)
	case cart.EventFailed:
		a.logger.Debug("cart change rejected", zap.String("op", string(e.Op)), zap.Error(e.Err))
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return a.products(ctx)
	case "cart":
		a.printCart(a.store.Lines())
		return nil
	case "add":
		return a.add(ctx, args)
	case "set":
		return a.set(ctx, args)
	case "remove":
		if len(args) != 1 {
			return errors.New("remove needs a product id")
		}
		lines, err := a.store.RemoveItem(ctx, args[0])
		if err != nil {
			return err
		}
		a.printCart(lines)
		return nil
	case "clear":
		if err := a.store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "cart cleared")
		return nil
	case "login":
		return a.login(ctx, args)
	case "logout":
		if err := a.store.SetIdentity(ctx, domain.Guest()); err != nil {
			return err
		}
		if err := a.tokens.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "signed out")
		return nil
	case "addresses":
		return a.addresses(ctx)
	case "checkout":
		return a.runCheckout(ctx, args)
	case "order":
		return a.order(ctx, args)
	case "simulate-payment":
		return a.simulatePayment(ctx, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func (a *app) products(ctx context.Context) error {
	products, err := a.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tUNIT\tFARMER")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, money(p.PriceCents), p.Unit, p.FarmerName)
	}
	return w.Flush()
}

func (a *app) findProduct(ctx context.Context, id string) (domain.Product, error) {
	products, err := a.api.ListProducts(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("add needs a product id and an optional quantity")
	}
	quantity := 1
	if len(args) == 2 {
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: quantity %q", domain.ErrValidation, args[1])
		}
		quantity = q
	}
	product, err := a.findProduct(ctx, args[0])
	if err != nil {
		return err
	}
	lines, err := a.store.AddItem(ctx, product, quantity)
	if err != nil {
		return err
	}
	a.printCart(lines)
	return nil
}

func (a *app) set(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("set needs a product id and a quantity")
	}
	q, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: quantity %q", domain.ErrValidation, args[1])
	}
	lines, err := a.store.UpdateQuantity(ctx, args[0], q)
	if err != nil {
		return err
	}
	a.printCart(lines)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("login needs a bearer token")
	}
	id, err := session.IdentityFromToken(args[0], time.Now())
	if err != nil {
		return err
	}
	if !id.Authenticated {
		return fmt.Errorf("%w: empty token", domain.ErrAuth)
	}
	if err := a.store.SetIdentity(ctx, id); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := a.tokens.Save(ctx, id.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s\n", id.Subject)
	a.printCart(a.store.Lines())
	return nil
}

func (a *app) addresses(ctx context.Context) error {
	addrs, err := a.api.ListAddresses(ctx, a.store.Identity().Token)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tADDRESS")
	for _, addr := range addrs {
		fmt.Fprintf(w, "%s\t%s\t%s, %s %s\n", addr.ID, addr.Label, addr.Line1, addr.City, addr.PostalCode)
	}
	return w.Flush()
}

func (a *app) runCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	addressID := fs.String("address", "", "delivery address id")
	method := fs.String("payment", string(domain.PaymentCOD), "cod or online")
	wait := fs.Bool("wait", false, "wait for online payment to settle")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.checkout.Checkout(ctx, checkout.Request{AddressID: *addressID, PaymentMethod: *method})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "order %s %s, total %s\n", res.Order.ID, res.Order.Status, money(res.Order.TotalPriceCents))
	if res.PaymentURL == "" {
		return nil
	}
	fmt.Fprintf(a.out, "complete payment at %s\n", res.PaymentURL)
	if !*wait {
		return nil
	}
	return a.await(ctx, res.Order.ID)
}

func (a *app) order(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	wait := fs.Bool("wait", false, "wait for online payment to settle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("order needs an order id")
	}
	orderID := fs.Arg(0)
	if *wait {
		if err := a.checkout.Resume(orderID); err != nil {
			return err
		}
		return a.await(ctx, orderID)
	}
	o, err := a.api.GetOrder(ctx, a.store.Identity().Token, orderID)
	if err != nil {
		return err
	}
	if o.PaymentMethod == domain.PaymentOnline {
		if err := a.checkout.Resume(orderID); err != nil {
			return err
		}
		if o, err = a.checkout.ConfirmSettlement(ctx, orderID); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "order %s %s, %s, total %s\n", o.ID, o.Status, o.PaymentMethod, money(o.TotalPriceCents))
	return nil
}

func (a *app) await(ctx context.Context, orderID string) error {
	fmt.Fprintln(a.out, "waiting for payment...")
	o, err := a.checkout.AwaitSettlement(ctx, orderID, pollInterval)
	if err != nil {
		return err
	}
	if o.Status == domain.OrderStatusPaymentFailed {
		return fmt.Errorf("payment for order %s failed, your cart was kept", orderID)
	}
	fmt.Fprintf(a.out, "order %s placed\n", orderID)
	return nil
}

func (a *app) simulatePayment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate-payment", flag.ContinueOnError)
	fail := fs.Bool("fail", false, "report the payment as failed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("simulate-payment needs an order id")
	}
	notifier := payment.NewSettlementNotifier(a.cfg.Storefront.APIURL, a.cfg.PaymentWebhookSecret, a.cfg.Storefront.Timeout)
	if err := notifier.Notify(ctx, fs.Arg(0), !*fail); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "settlement sent for %s\n", fs.Arg(0))
	return nil
}

func (a *app) printCart(lines []domain.CartLine) {
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, money(l.UnitPriceCents), money(l.Subtotal()))
	}
	fmt.Fprintf(w, "\t\t\tTOTAL\t%s\n", money(domain.TotalOf(lines)))
	_ = w.Flush()
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
