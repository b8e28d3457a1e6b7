package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"customerforge/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	FindByEmail(ctx context.Context, email string) (*entity.Customer, error)
	Search(ctx context.Context, term string) ([]entity.Customer, error)
	Recent(ctx context.Context, limit int) ([]entity.Customer, error)
	List(ctx context.Context) ([]entity.Customer, error)
	UpdateVerification(ctx context.Context, id uuid.UUID, completed bool, code string) error
	AssignNumber(ctx context.Context, id uuid.UUID, phoneNumber, verificationID string) error
	LogSMS(ctx context.Context, id uuid.UUID, phoneNumber, smsCode string) (bool, error)
	RecentAddresses(ctx context.Context, limit int) ([]entity.Customer, error)
	Analytics(ctx context.Context) (Analytics, error)
}

// Analytics summarizes the customer table for reporting.
type Analytics struct {
	TotalCustomers    int64
	VerifiedCustomers int64
	TotalSMSReceived  int64
	AddressSources    map[string]int64
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Migrate creates the customer tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Customer{}, &entity.PhoneNumber{}, &entity.SMSMessage{})
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).
		Preload("PhoneNumbers").
		Preload("SMSMessages").
		Where("id = ?", id).
		First(&customer).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&customer).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) Search(ctx context.Context, term string) ([]entity.Customer, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	var customers []entity.Customer
	err := r.db.WithContext(ctx).
		Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR primary_phone LIKE ?",
			pattern, pattern, pattern).
		Order("updated_at DESC").
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) Recent(ctx context.Context, limit int) ([]entity.Customer, error) {
	var customers []entity.Customer
	query := r.db.WithContext(ctx).Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&customers).Error
	return customers, err
}

func (r *customerRepository) List(ctx context.Context) ([]entity.Customer, error) {
	var customers []entity.Customer
	err := r.db.WithContext(ctx).
		Preload("PhoneNumbers").
		Preload("SMSMessages").
		Order("created_at DESC").
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) UpdateVerification(ctx context.Context, id uuid.UUID, completed bool, code string) error {
	updates := map[string]any{
		"verification_completed": completed,
		"updated_at":             time.Now(),
	}
	if code != "" {
		updates["verification_code"] = code
	}
	result := r.db.WithContext(ctx).
		Model(&entity.Customer{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignNumber demotes the customer's existing numbers and appends the new
// one as primary, updating the denormalized primary fields in one
// transaction.
func (r *customerRepository) AssignNumber(ctx context.Context, id uuid.UUID, phoneNumber, verificationID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer entity.Customer
		if err := tx.Where("id = ?", id).First(&customer).Error; err != nil {
			return err
		}

		if err := tx.Model(&entity.PhoneNumber{}).
			Where("customer_id = ?", id).
			Update("is_primary", false).Error; err != nil {
			return err
		}

		phone := entity.PhoneNumber{
			CustomerID:     id,
			PhoneNumber:    phoneNumber,
			VerificationID: verificationID,
			IsPrimary:      true,
			Status:         "active",
		}
		if err := tx.Create(&phone).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Customer{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"primary_phone":           phoneNumber,
				"primary_verification_id": verificationID,
				"verification_completed":  false,
				"verification_code":       nil,
				"updated_at":              time.Now(),
			}).Error
	})
}

// LogSMS appends one history entry per newly confirmed code. A code equal
// to the customer's last-seen entry is skipped, so re-reads of an
// already-completed verification do not duplicate history. Returns whether
// a row was written.
func (r *customerRepository) LogSMS(ctx context.Context, id uuid.UUID, phoneNumber, smsCode string) (bool, error) {
	var last entity.SMSMessage
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", id).
		Order("received_at DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err == nil && last.SMSCode == smsCode {
		return false, nil
	}

	entry := entity.SMSMessage{
		CustomerID:  id,
		PhoneNumber: phoneNumber,
		SMSCode:     smsCode,
		ServiceUsed: "daisysms",
		ReceivedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

// RecentAddresses returns the most recently updated customers that carry
// a full address, for quick re-use in address selection.
func (r *customerRepository) RecentAddresses(ctx context.Context, limit int) ([]entity.Customer, error) {
	if limit <= 0 {
		limit = 10
	}
	var customers []entity.Customer
	err := r.db.WithContext(ctx).
		Where("full_address <> ''").
		Order("updated_at DESC").
		Limit(limit).
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) Analytics(ctx context.Context) (Analytics, error) {
	out := Analytics{AddressSources: map[string]int64{}}
	db := r.db.WithContext(ctx)

	if err := db.Model(&entity.Customer{}).Count(&out.TotalCustomers).Error; err != nil {
		return out, err
	}
	if err := db.Model(&entity.Customer{}).
		Where("verification_completed = ?", true).
		Count(&out.VerifiedCustomers).Error; err != nil {
		return out, err
	}
	if err := db.Model(&entity.SMSMessage{}).Count(&out.TotalSMSReceived).Error; err != nil {
		return out, err
	}

	rows := []struct {
		AddressSource string
		N             int64
	}{}
	if err := db.Model(&entity.Customer{}).
		Select("address_source, COUNT(*) AS n").
		Group("address_source").
		Scan(&rows).Error; err != nil {
		return out, err
	}
	for _, row := range rows {
		out.AddressSources[row.AddressSource] = row.N
	}
	return out, nil
}
