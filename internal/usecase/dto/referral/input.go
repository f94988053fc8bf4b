package referraldto

type RegisterUserInput struct {
	UserID        string `validate:"required,uuid"`
	Email         string `validate:"required,email,max=254"`
	FullName      string `validate:"required,max=200"`
	AvatarURL     string `validate:"omitempty,url"`
	ReferralCode  string `validate:"omitempty,max=64"`
	ReferralToken string `validate:"omitempty,jwt"`
}

type InviteInput struct {
	ReferrerID    string `validate:"required,uuid"`
	ReferredEmail string `validate:"required,email,max=254"`
}

type ActivityInput struct {
	UserID     string `validate:"required,uuid"`
	ActivityID string `validate:"required,max=128"`
}
