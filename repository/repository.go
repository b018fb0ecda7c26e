package repository

import "gorm.io/gorm"

// Repositories groups the stores built over one database handle
type Repositories struct {
	DB        *gorm.DB
	Orders    OrderRepository
	Messages  MessageRepository
	Reviews   ReviewRepository
	Printers  PrinterRepository
	Providers ProviderRepository
	Users     UserRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:        db,
		Orders:    NewOrderRepository(db),
		Messages:  NewMessageRepository(db),
		Reviews:   NewReviewRepository(db),
		Printers:  NewPrinterRepository(db),
		Providers: NewProviderRepository(db),
		Users:     NewUserRepository(db),
	}
}
