package repository

import "bloodconnect/internal/gateway"

// Schema lists every table the application stores, with the unique keys
// the in-memory backend must enforce and the gorm model for the SQL one.
func Schema() gateway.Schema {
	return gateway.NewSchema(
		gateway.Table{Name: TableUsers, Unique: [][]string{{"email"}}, Model: func() any { return &userModel{} }},
		gateway.Table{Name: TableDonors, Model: func() any { return &donorModel{} }},
		gateway.Table{Name: TableHospitals, Model: func() any { return &hospitalModel{} }},
		gateway.Table{Name: TableInventory, Unique: [][]string{{"hospital_id", "blood_group"}}, Model: func() any { return &inventoryModel{} }},
		gateway.Table{Name: TableInventoryMovements, Model: func() any { return &movementModel{} }},
		gateway.Table{Name: TableRequests, Model: func() any { return &requestModel{} }},
		gateway.Table{Name: TableCamps, Model: func() any { return &campModel{} }},
		gateway.Table{Name: TableCampRegistrations, Unique: [][]string{{"camp_id", "donor_id"}}, Model: func() any { return &campRegistrationModel{} }},
		gateway.Table{Name: TableNotifications, Model: func() any { return &notificationModel{} }},
		gateway.Table{Name: TableNotificationPreferences, Model: func() any { return &preferencesModel{} }},
		gateway.Table{Name: TableDonations, Model: func() any { return &donationModel{} }},
	)
}

// Repositories bundles every repository over one gateway.
type Repositories struct {
	Users         *UserRepository
	Donors        *DonorRepository
	Hospitals     *HospitalRepository
	Inventory     *InventoryRepository
	Requests      *RequestRepository
	Camps         *CampRepository
	Notifications *NotificationRepository
	Donations     *DonationRepository
}

func New(gw gateway.Gateway) *Repositories {
	users := NewUserRepository(gw)
	return &Repositories{
		Users:         users,
		Donors:        NewDonorRepository(gw, users),
		Hospitals:     NewHospitalRepository(gw, users),
		Inventory:     NewInventoryRepository(gw),
		Requests:      NewRequestRepository(gw),
		Camps:         NewCampRepository(gw),
		Notifications: NewNotificationRepository(gw),
		Donations:     NewDonationRepository(gw),
	}
}
