package runner

import (
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/flowershop/storefront/tools/loadgen/internal/client"
)

// Registration only accepts Cyrillic personal names, which gofakeit does not generate.
var (
	firstNames  = []string{"Анна", "Мария", "Елена", "Ольга", "Иван", "Пётр", "Сергей", "Дмитрий"}
	lastNames   = []string{"Иванова", "Петрова", "Смирнова", "Кузнецов", "Попов", "Соколов", "Лебедев"}
	patronymics = []string{"", "Ивановна", "Сергеевна", "Петрович", "Андреевич"}
)

var (
	fakerMu sync.Mutex
	faker   = gofakeit.New(0)
)

// fakeCustomer builds a registration form for a new unique customer
func fakeCustomer() client.RegisterInput {
	fakerMu.Lock()
	defer fakerMu.Unlock()

	username := sanitizeUsername(faker.Username()) + "-" + uuid.NewString()[:8]
	password := faker.Password(true, true, true, false, false, 12)
	return client.RegisterInput{
		Username:       username,
		Email:          username + "@" + faker.DomainName(),
		FirstName:      faker.RandomString(firstNames),
		LastName:       faker.RandomString(lastNames),
		Patronymic:     faker.RandomString(patronymics),
		Password:       password,
		PasswordRepeat: password,
		AcceptRules:    true,
	}
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "buyer"
	}
	return b.String()
}
