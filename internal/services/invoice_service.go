package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tradebill/api/internal/config"
	"tradebill/api/internal/db"
	"tradebill/api/internal/email"
	"tradebill/api/internal/models"
	"tradebill/api/internal/pdf"
	"tradebill/api/internal/storage"
	"tradebill/api/internal/utils"
)

// ErrAlreadySent is returned when sending an invoice whose status is already
// "sent". Repeated sends are rejected outright with no side effects.
var ErrAlreadySent = errors.New("invoice has already been sent")

// ErrProfileIncomplete is returned when sending is attempted before the user
// has set up a business profile.
var ErrProfileIncomplete = errors.New("business profile not set up")

// LineItemInput carries one line item from the API.
type LineItemInput struct {
	Description string  `json:"description" binding:"required,max=500"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"gte=0"`
	Category    string  `json:"category" binding:"required,oneof=parts labor"`
}

// InvoiceInput carries the invoice fields for create and full-replace update.
type InvoiceInput struct {
	ClientName  string          `json:"client_name" binding:"required,max=255"`
	ClientEmail string          `json:"client_email" binding:"required,email,max=255"`
	JobAddress  string          `json:"job_address" binding:"required,max=500"`
	TradeType   string          `json:"trade_type" binding:"required,oneof=plumbing electrical hvac"`
	TaxRate     float64         `json:"tax_rate" binding:"gte=0,lte=100"`
	LineItems   []LineItemInput `json:"line_items" binding:"required,min=1,dive"`
}

func (in *InvoiceInput) toLineItems() []models.LineItem {
	items := make([]models.LineItem, len(in.LineItems))
	for i, li := range in.LineItems {
		items[i] = models.LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Category:    models.LineItemCategory(li.Category),
		}
	}
	return items
}

// IInvoiceService defines the interface for invoice operations. All lookups
// are scoped to the owning user; an invoice that exists but belongs to
// someone else is indistinguishable from one that does not exist.
type IInvoiceService interface {
	CreateInvoice(ctx context.Context, userID utils.SixID, in InvoiceInput) (*models.Invoice, error)
	ListInvoices(ctx context.Context, userID utils.SixID) ([]models.Invoice, error)
	FindInvoiceByID(ctx context.Context, userID, invoiceID utils.SixID) (*models.Invoice, error)
	UpdateInvoice(ctx context.Context, userID, invoiceID utils.SixID, in InvoiceInput) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, userID, invoiceID utils.SixID, status models.InvoiceStatus) (*models.Invoice, error)
	SendInvoice(ctx context.Context, userID, invoiceID utils.SixID) (*models.Invoice, error)
}

const invoicesCollection = "invoices"

type invoiceService struct {
	db             *mongo.Database
	cfg            *config.Config
	profileService IProfileService
	pdfGenerator   pdf.Generator
	objectStorage  storage.IObjectStorage
	emailSender    email.Sender
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	database *mongo.Database,
	cfg *config.Config,
	profileService IProfileService,
	pdfGenerator pdf.Generator,
	objectStorage storage.IObjectStorage,
	emailSender email.Sender,
) IInvoiceService {
	return &invoiceService{
		db:             database,
		cfg:            cfg,
		profileService: profileService,
		pdfGenerator:   pdfGenerator,
		objectStorage:  objectStorage,
		emailSender:    emailSender,
	}
}

// CreateInvoice creates a new draft invoice with its line items.
func (s *invoiceService) CreateInvoice(ctx context.Context, userID utils.SixID, in InvoiceInput) (*models.Invoice, error) {
	collection := s.db.Collection(invoicesCollection)

	now := time.Now().UTC()
	var invoice *models.Invoice

	operation := func() error {
		invoice = &models.Invoice{
			Base:        models.NewBase(), // ID regenerated on each attempt
			UserID:      userID,
			ClientName:  in.ClientName,
			ClientEmail: in.ClientEmail,
			JobAddress:  in.JobAddress,
			TradeType:   models.TradeType(in.TradeType),
			TaxRate:     in.TaxRate,
			Status:      models.InvoiceStatusDraft,
			Items:       in.toLineItems(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		_, insertErr := collection.InsertOne(ctx, invoice)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("error inserting invoice for user %s: %w", userID.String(), err)
	}

	return invoice, nil
}

// ListInvoices returns the user's invoices, newest first. Ties on creation
// time are broken by _id descending so the order is stable.
func (s *invoiceService) ListInvoices(ctx context.Context, userID utils.SixID) ([]models.Invoice, error) {
	collection := s.db.Collection(invoicesCollection)

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing invoices for user %s: %w", userID.String(), err)
	}
	defer cursor.Close(ctx)

	invoices := []models.Invoice{}
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("error decoding invoices for user %s: %w", userID.String(), err)
	}
	return invoices, nil
}

// FindInvoiceByID returns one of the user's invoices.
// Returns mongo.ErrNoDocuments if it is absent or owned by another user.
func (s *invoiceService) FindInvoiceByID(ctx context.Context, userID, invoiceID utils.SixID) (*models.Invoice, error) {
	var invoice models.Invoice
	collection := s.db.Collection(invoicesCollection)

	err := collection.FindOne(ctx, bson.M{"_id": invoiceID, "user_id": userID}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding invoice %s: %w", invoiceID.String(), err)
	}
	return &invoice, nil
}

// UpdateInvoice fully replaces the invoice's fields and line items. The old
// item set is discarded in the same write, so there are never orphaned items.
func (s *invoiceService) UpdateInvoice(ctx context.Context, userID, invoiceID utils.SixID, in InvoiceInput) (*models.Invoice, error) {
	collection := s.db.Collection(invoicesCollection)

	update := bson.M{
		"$set": bson.M{
			"client_name":  in.ClientName,
			"client_email": in.ClientEmail,
			"job_address":  in.JobAddress,
			"trade_type":   models.TradeType(in.TradeType),
			"tax_rate":     in.TaxRate,
			"items":        in.toLineItems(),
			"updated_at":   time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var invoice models.Invoice
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": invoiceID, "user_id": userID}, update, opts).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error updating invoice %s: %w", invoiceID.String(), err)
	}
	return &invoice, nil
}

// UpdateStatus sets the invoice status directly. No transition table is
// enforced here; "sent" is only gated in the send pipeline.
func (s *invoiceService) UpdateStatus(ctx context.Context, userID, invoiceID utils.SixID, status models.InvoiceStatus) (*models.Invoice, error) {
	collection := s.db.Collection(invoicesCollection)

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var invoice models.Invoice
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": invoiceID, "user_id": userID}, update, opts).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error updating status of invoice %s: %w", invoiceID.String(), err)
	}
	return &invoice, nil
}

// SendInvoice renders the invoice PDF, stores it, emails it to the client and
// commits the "sent" status with the document URL.
//
// No database write happens before the final commit, so a failure at any
// earlier step leaves the invoice exactly as it was. The commit itself is a
// compare-and-swap on status, which also closes the race where two concurrent
// sends both pass the early already-sent check.
func (s *invoiceService) SendInvoice(ctx context.Context, userID, invoiceID utils.SixID) (*models.Invoice, error) {
	invoice, err := s.FindInvoiceByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.Status == models.InvoiceStatusSent {
		return nil, ErrAlreadySent
	}

	profile, err := s.profileService.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileIncomplete
		}
		return nil, fmt.Errorf("error loading business profile for send of invoice %s: %w", invoiceID.String(), err)
	}

	complianceNotes := ComplianceNotes(invoice.TradeType)
	totals := CalculateInvoiceTotals(invoice.Items, invoice.TaxRate)

	pdfBytes, err := s.pdfGenerator.GenerateInvoicePDF(invoice, profile, totals, complianceNotes)
	if err != nil {
		return nil, fmt.Errorf("error rendering invoice %s: %w", invoiceID.String(), err)
	}

	key, err := s.objectStorage.UploadPDF(ctx, pdfBytes, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("error storing rendered invoice %s: %w", invoiceID.String(), err)
	}

	pdfURL, err := s.objectStorage.PublicURL(key)
	if err != nil {
		return nil, fmt.Errorf("error deriving public URL for invoice %s: %w", invoiceID.String(), err)
	}

	subject := fmt.Sprintf("Invoice #%s from %s", invoice.ID.String(), profile.BusinessName)
	pdfFilename := fmt.Sprintf("invoice_%s_%s.pdf",
		invoice.ID.String(),
		strings.ReplaceAll(profile.BusinessName, " ", "_"),
	)

	rawMessage, err := email.BuildInvoiceMessage(
		s.cfg.SmtpFromAddress,
		invoice.ClientEmail,
		subject,
		invoice.ClientName,
		profile.BusinessName,
		s.cfg.AppName,
		pdfBytes,
		pdfFilename,
	)
	if err != nil {
		return nil, fmt.Errorf("error building delivery email for invoice %s: %w", invoiceID.String(), err)
	}

	if err := s.emailSender.Send(ctx, []string{invoice.ClientEmail}, subject, rawMessage); err != nil {
		return nil, fmt.Errorf("error delivering invoice %s: %w", invoiceID.String(), err)
	}

	// Commit. The status filter makes the update a compare-and-swap: if a
	// concurrent send committed first, MatchedCount is zero.
	collection := s.db.Collection(invoicesCollection)
	now := time.Now().UTC()
	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": invoiceID, "user_id": userID, "status": bson.M{"$ne": models.InvoiceStatusSent}},
		bson.M{"$set": bson.M{
			"status":     models.InvoiceStatusSent,
			"pdf_url":    pdfURL,
			"updated_at": now,
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("error committing send of invoice %s: %w", invoiceID.String(), err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrAlreadySent
	}

	invoice.Status = models.InvoiceStatusSent
	invoice.PDFURL = pdfURL
	invoice.UpdatedAt = now
	return invoice, nil
}
