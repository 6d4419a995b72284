package rating

import (
	"time"

	"github.com/google/uuid"
)

type CollaborationRating struct {
	ID          uuid.UUID `json:"id"`
	RaterID     uuid.UUID `json:"raterId"`
	RatedUserID uuid.UUID `json:"ratedUserId"`
	Rating      int       `json:"rating"`
	Comment     *string   `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RateRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}
