package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TypeDebit is the only transaction type produced by the current extractors.
const TypeDebit = "debit"

var (
	ErrMissingDate   = errors.New("transaction has no date")
	ErrMissingAmount = errors.New("transaction has no amount")
)

// Transaction is a single row read from a credit card statement. It is built
// once through TransactionBuilder and never modified afterwards.
type Transaction struct {
	date         Date
	description  string
	amount       decimal.Decimal
	installments string
	card         string
	txType       string
}

func (t *Transaction) Date() Date {
	return t.date
}

func (t *Transaction) Description() string {
	return t.description
}

func (t *Transaction) Amount() decimal.Decimal {
	return t.amount
}

// Installments is reserved; no issuer fills it yet.
func (t *Transaction) Installments() string {
	return t.installments
}

// Card is the label of the issuer whose extractor produced the row.
func (t *Transaction) Card() string {
	return t.card
}

func (t *Transaction) Type() string {
	return t.txType
}

func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s %s (%s)", t.date, t.description, t.amount.StringFixed(2), t.card)
}

// TransactionBuilder collects the raw tokens of a statement line. Parsing
// happens while setting, Build reports the first failure.
type TransactionBuilder struct {
	tx        Transaction
	hasDate   bool
	hasAmount bool
	err       error
}

func NewTransaction(description string) *TransactionBuilder {
	return &TransactionBuilder{
		tx: Transaction{
			description: description,
			txType:      TypeDebit,
		},
	}
}

// SetDate parses a DD/MM token.
func (b *TransactionBuilder) SetDate(token string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	date, err := ParseDate(token)
	if err != nil {
		b.err = err
		return b
	}
	b.tx.date = date
	b.hasDate = true
	return b
}

// SetAmount parses an amount token in the Brazilian format.
func (b *TransactionBuilder) SetAmount(token string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	amount, err := ParseAmount(token)
	if err != nil {
		b.err = err
		return b
	}
	b.tx.amount = amount
	b.hasAmount = true
	return b
}

func (b *TransactionBuilder) SetCard(card string) *TransactionBuilder {
	b.tx.card = card
	return b
}

func (b *TransactionBuilder) SetInstallments(installments string) *TransactionBuilder {
	b.tx.installments = installments
	return b
}

func (b *TransactionBuilder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.hasDate {
		return nil, ErrMissingDate
	}
	if !b.hasAmount {
		return nil, ErrMissingAmount
	}
	tx := b.tx
	return &tx, nil
}
