package requests

type AddBlockedDate struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason  string `json:"reason" validate:"required,not_blank,max=500"`
	ActorID string `json:"-" validate:"required"`
}
