package entities

type ReservationEmailData struct {
	UserName           string
	ReservationCode    string
	VehiclePlate       string
	Status             string
	StartTimeFormatted string
	EndTimeFormatted   string
	TotalAmount        string
	RefundAmount       string
	CurrentYear        int
}
