package tenants

import (
	"time"

	"github.com/jeffgoval/massage/internal/catalog"
)

// TenantProfile is the provider's public record. Its identifier equals the
// owning account's identifier; there is no separate tenant id. Photos,
// Amenities and Availability hold JSON blobs decoded at the boundary.
type TenantProfile struct {
	ID            string    `bson:"_id" json:"id"`
	DisplayName   string    `bson:"displayName" json:"displayName"`
	Slug          string    `bson:"slug" json:"slug"`
	Bio           string    `bson:"bio" json:"bio"`
	Tagline       string    `bson:"tagline" json:"tagline"`
	Location      string    `bson:"location" json:"location"`
	IsActive      bool      `bson:"isActive" json:"isActive"`
	IsVip         bool      `bson:"isVip" json:"isVip"`
	IsVerified    bool      `bson:"isVerified" json:"isVerified"`
	Rating        float64   `bson:"rating" json:"rating"`
	ReviewCount   int       `bson:"reviewCount" json:"reviewCount"`
	TotalBookings int       `bson:"totalBookings" json:"totalBookings"`
	Avatar        string    `bson:"avatar" json:"avatar"`
	Photos        string    `bson:"photos" json:"-"`
	Amenities     string    `bson:"amenities" json:"-"`
	Availability  string    `bson:"availability" json:"-"`
	Age           int       `bson:"age,omitempty" json:"age,omitempty"`
	Height        string    `bson:"height,omitempty" json:"height,omitempty"`
	Weight        string    `bson:"weight,omitempty" json:"weight,omitempty"`
	Ethnicity     string    `bson:"ethnicity,omitempty" json:"ethnicity,omitempty"`
	EyeColor      string    `bson:"eyeColor,omitempty" json:"eyeColor,omitempty"`
	HairColor     string    `bson:"hairColor,omitempty" json:"hairColor,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

type DaySchedule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type WeekSchedule map[string]DaySchedule

func DefaultAvailability() WeekSchedule {
	week := WeekSchedule{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
		week[day] = DaySchedule{Enabled: true, Start: "10:00", End: "22:00"}
	}
	week["sunday"] = DaySchedule{Enabled: false}
	return week
}

// PublicProfile is the composed view served to visitors: the tenant record
// joined with its packages, recent reviews and the price resolved for now.
type PublicProfile struct {
	TenantProfile
	PhotoURLs    []string          `json:"photos"`
	AmenityList  []string          `json:"amenities"`
	Schedule     WeekSchedule      `json:"availability"`
	Packages     []catalog.Package `json:"packages"`
	Reviews      []catalog.Review  `json:"reviews"`
	CurrentPrice int               `json:"currentPrice"`
}

type UpdateProfileRequest struct {
	DisplayName  string       `json:"displayName" validate:"omitempty,min=2,max=120"`
	Bio          string       `json:"bio" validate:"max=2000"`
	Tagline      string       `json:"tagline" validate:"max=200"`
	Location     string       `json:"location" validate:"max=200"`
	IsActive     *bool        `json:"isActive"`
	Photos       []string     `json:"photos" validate:"omitempty,dive,url"`
	Amenities    []string     `json:"amenities" validate:"omitempty,dive,max=100"`
	Availability WeekSchedule `json:"availability"`
	Age          int          `json:"age" validate:"omitempty,gte=18,lte=99"`
	Height       string       `json:"height" validate:"max=10"`
	Weight       string       `json:"weight" validate:"max=10"`
	Ethnicity    string       `json:"ethnicity" validate:"max=50"`
	EyeColor     string       `json:"eyeColor" validate:"max=30"`
	HairColor    string       `json:"hairColor" validate:"max=30"`
}

type SearchFilter struct {
	Location string
	VIP      *bool
	Verified *bool
}
