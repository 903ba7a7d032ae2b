package dish

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/obfuscate"
)

// Public is the only shape of a dish the daily endpoint ever sends. Tags and
// region are non-identifying; every answer-bearing field lives in Encrypted.
type Public struct {
	Tags      []string `json:"tags"`
	Region    *string  `json:"region"`
	Encrypted string   `json:"_encrypted"`
	Salt      string   `json:"_salt"`
	Checksum  string   `json:"_checksum"`
}

// BuildPublic obfuscates d with the salt for now. Checksum is a random decoy
// so the payload has no stable structure to pattern-match across days.
func BuildPublic(d *Dish, now time.Time) (Public, error) {
	secret := *d
	secret.Tags = nil
	secret.Region = ""

	salt := daily.Salt(now)
	enc, err := obfuscate.Obfuscate(secret, salt)
	if err != nil {
		return Public{}, err
	}

	p := Public{
		Tags:      d.Tags,
		Encrypted: enc,
		Salt:      salt,
		Checksum:  strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if d.Region != "" {
		region := d.Region
		p.Region = &region
	}
	return p, nil
}

// Reveal decodes a Public payload back into the full dish. ok is false when
// the payload cannot be recovered with its salt.
func Reveal(p Public) (*Dish, bool) {
	var d Dish
	if !obfuscate.DeobfuscateInto(p.Encrypted, p.Salt, &d) {
		return nil, false
	}
	d.Tags = p.Tags
	if p.Region != nil {
		d.Region = *p.Region
	}
	return &d, true
}
