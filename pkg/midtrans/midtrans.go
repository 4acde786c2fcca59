package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

type Config struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
}

type Client struct {
	config     Config
	snapClient snap.Client
	coreClient coreapi.Client
}

func NewClient(cfg Config) *Client {
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}

	s := snap.Client{}
	s.New(cfg.ServerKey, env)

	c := coreapi.Client{}
	c.New(cfg.ServerKey, env)

	return &Client{
		config:     cfg,
		snapClient: s,
		coreClient: c,
	}
}

type ItemDetail struct {
	ID       string
	Name     string
	Price    int64
	Quantity int32
}

type CustomerDetail struct {
	FirstName string
	LastName  string
	Email     string
}

type CreateTransactionRequest struct {
	OrderID         string
	GrossAmount     int64
	ItemDetails     []ItemDetail
	CustomerDetails CustomerDetail
}

type CreateTransactionResponse struct {
	Token       string
	RedirectURL string
}

type TransactionStatusResponse struct {
	TransactionID     string
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
	GrossAmount       string
	TransactionTime   string
	SettlementTime    string
	StatusCode        string
	StatusMessage     string
}

var (
	ErrNilResponse      = errors.New("received nil response from midtrans")
	ErrEmptyOrderID     = errors.New("order id is required")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Gateway is the subset of the client the billing service depends on.
type Gateway interface {
	CreateSnapTransaction(req CreateTransactionRequest) (*CreateTransactionResponse, error)
	CheckTransaction(orderID string) (*TransactionStatusResponse, error)
	VerifySignatureKey(orderID, statusCode, grossAmount, signatureKey string) bool
}

func (c *Client) CreateSnapTransaction(req CreateTransactionRequest) (*CreateTransactionResponse, error) {
	if req.OrderID == "" {
		return nil, ErrEmptyOrderID
	}

	itemDetails := make([]midtrans.ItemDetails, len(req.ItemDetails))
	for i, item := range req.ItemDetails {
		itemDetails[i] = midtrans.ItemDetails{
			ID:    item.ID,
			Name:  item.Name,
			Price: item.Price,
			Qty:   item.Quantity,
		}
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerDetails.FirstName,
			LName: req.CustomerDetails.LastName,
			Email: req.CustomerDetails.Email,
		},
		Items: &itemDetails,
	}

	snapResp, err := c.snapClient.CreateTransaction(snapReq)
	if err != nil {
		return nil, err
	}
	if snapResp == nil {
		return nil, ErrNilResponse
	}

	return &CreateTransactionResponse{
		Token:       snapResp.Token,
		RedirectURL: snapResp.RedirectURL,
	}, nil
}

func (c *Client) CheckTransaction(orderID string) (*TransactionStatusResponse, error) {
	if orderID == "" {
		return nil, ErrEmptyOrderID
	}

	resp, err := c.coreClient.CheckTransaction(orderID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNilResponse
	}

	return &TransactionStatusResponse{
		TransactionID:     resp.TransactionID,
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		PaymentType:       resp.PaymentType,
		GrossAmount:       resp.GrossAmount,
		TransactionTime:   resp.TransactionTime,
		SettlementTime:    resp.SettlementTime,
		StatusCode:        resp.StatusCode,
		StatusMessage:     resp.StatusMessage,
	}, nil
}

// VerifySignatureKey checks SHA512(order_id+status_code+gross_amount+server_key).
func (c *Client) VerifySignatureKey(orderID, statusCode, grossAmount, signatureKey string) bool {
	expected := Signature(orderID, statusCode, grossAmount, c.config.ServerKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}

func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	hash := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(hash[:])
}

func (c *Client) ClientKey() string {
	return c.config.ClientKey
}
