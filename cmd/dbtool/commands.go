package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/apperr"
	"github.com/ariefcatur/go-bookstore/internal/orders"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
	"github.com/ariefcatur/go-bookstore/internal/users"
)

type command interface {
	Run(ctx context.Context, db *pgxpool.Pool, log *zap.Logger, out io.Writer) error
}

func parseCommand(name string, args []string) (command, error) {
	switch name {
	case "migrate":
		return migrateCmd{}, nil
	case "check-schema":
		return checkSchemaCmd{}, nil
	case "promote-admin", "demote-admin":
		c := &adminCmd{promote: name == "promote-admin"}
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.StringVar(&c.email, "email", "", "e-mail of the user")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if c.email == "" {
			return nil, errors.New("-email is required")
		}
		return c, nil
	case "seed-order":
		c := &seedOrderCmd{}
		var price string
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.StringVar(&c.email, "email", "", "e-mail of the user to order for (created if missing)")
		fs.StringVar(&c.name, "name", "Test User", "name used when the user is created")
		fs.StringVar(&c.title, "title", "Test Book", "book title on the order line")
		fs.StringVar(&price, "price", "500.00", "unit price")
		fs.IntVar(&c.qty, "qty", 1, "quantity")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if c.email == "" {
			return nil, errors.New("-email is required")
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid -price %q", price)
		}
		c.price = p
		return c, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

type migrateCmd struct{}

func (migrateCmd) Run(ctx context.Context, db *pgxpool.Pool, log *zap.Logger, out io.Writer) error {
	if err := postgres.Migrate(ctx, db, log); err != nil {
		return err
	}
	fmt.Fprintln(out, "schema is up to date")
	return nil
}

type checkSchemaCmd struct{}

func (checkSchemaCmd) Run(ctx context.Context, db *pgxpool.Pool, _ *zap.Logger, out io.Writer) error {
	rep, err := postgres.CheckSchema(ctx, db)
	if err != nil {
		return err
	}
	printReport(out, rep)
	if !rep.OK() {
		return errors.New("schema is incomplete, run migrate")
	}
	return nil
}

func printReport(out io.Writer, rep postgres.SchemaReport) {
	if rep.OK() {
		fmt.Fprintln(out, "all required tables and columns are present")
		return
	}
	for _, table := range rep.Tables() {
		fmt.Fprintf(out, "%s: missing %s\n", table, strings.Join(rep.Missing[table], ", "))
	}
}

type adminCmd struct {
	email   string
	promote bool
}

func (c *adminCmd) Run(ctx context.Context, db *pgxpool.Pool, _ *zap.Logger, out io.Writer) error {
	u, err := (&users.Repo{DB: db}).SetAdminByEmail(ctx, c.email, c.promote)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s <%s> is_admin=%t\n", u.Name, u.Email, u.IsAdmin)
	return nil
}

type seedOrderCmd struct {
	email string
	name  string
	title string
	price decimal.Decimal
	qty   int
}

func (c *seedOrderCmd) Run(ctx context.Context, db *pgxpool.Pool, _ *zap.Logger, out io.Writer) error {
	repo := &users.Repo{DB: db}
	u, err := repo.GetByEmail(ctx, c.email)
	if apperr.KindOf(err) == apperr.KindNotFound {
		u, err = repo.Create(ctx, users.CreateInput{Name: c.name, Email: c.email})
	}
	if err != nil {
		return err
	}

	o, err := (&orders.Repo{DB: db}).Create(ctx, orders.CreateInput{
		UserID:        &u.ID,
		Items:         []orders.ItemInput{{Quantity: c.qty, Price: &c.price, BookTitle: c.title}},
		PaymentMethod: "cod",
		Status:        orders.StatusConfirmed,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created order %s for user %d, total %s\n", o.OrderID, u.ID, o.Total.StringFixed(2))
	return nil
}
