package leadgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

var (
	firstNames = []string{"Aarav", "Priya", "Oliver", "Amelia", "Rohan", "Isla", "Kabir", "Freya", "Zara", "Harry", "Meera", "Jack"}
	lastNames  = []string{"Sharma", "Patel", "Smith", "Jones", "Kapoor", "Taylor", "Singh", "Brown", "Khan", "Evans"}
	domains    = []string{"example.com", "example.co.uk", "mail.example.org"}
	messages   = []string{
		"Do you cater for birthday parties of around 20 people?",
		"Is the Manchester branch open on bank holidays?",
		"Could we book the back room for a work lunch next Friday?",
		"Do you have vegan options on the breakfast menu?",
		"I'd love to know whether you host private chaat tasting evenings.",
		"Is there parking near the Liverpool restaurant?",
	}
)

func pick(list []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	return list[n.Int64()]
}

func digits(n int) string {
	b := make([]byte, n)
	for i := range b {
		d, _ := rand.Int(rand.Reader, big.NewInt(10))
		b[i] = byte('0' + d.Int64())
	}
	return string(b)
}

// Generate returns count distinct submissions followed by dup resubmissions
// of earlier ones. Every distinct submission carries its own token.
func Generate(count, dup int) []Submission {
	if count < 0 {
		count = 0
	}
	if count == 0 {
		dup = 0
	}
	out := make([]Submission, 0, count+max(dup, 0))
	for i := 0; i < count; i++ {
		first, last := pick(firstNames), pick(lastNames)
		out = append(out, Submission{
			Name:    first + " " + last,
			Email:   fmt.Sprintf("%s.%s.%d@%s", strings.ToLower(first), strings.ToLower(last), i, pick(domains)),
			Phone:   "07" + digits(9),
			Message: pick(messages),
			Token:   uuid.NewString(),
		})
	}
	for i := 0; i < dup; i++ {
		out = append(out, out[i%count])
	}
	return out
}
