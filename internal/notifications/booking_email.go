package notifications

import (
	"bytes"
	"html/template"

	"github.com/jeffgoval/massage/internal/bookings"
	"github.com/jeffgoval/massage/internal/models"
)

const bookingConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Olá {{.Name}},</p>
  <p>Sua reserva foi registrada. Confira os detalhes:</p>
  <ul>
    <li>Serviço: {{.PackageName}}</li>
    <li>Data: {{.Date}}</li>
    <li>Horário: {{.Time}}</li>
    <li>Duração: {{.DurationMinutes}} minutos</li>
    <li>Valor: R$ {{.Price}}</li>
    <li>Número da reserva: {{.BookingID}}</li>
  </ul>
  <p>O profissional confirmará sua reserva em breve. Você pode acompanhar o
  status e conversar pelo chat da plataforma.</p>
  <p>Obrigado.</p>
</body>
</html>`

var bookingConfirmationTmpl = template.Must(template.New("booking_confirmation").Parse(bookingConfirmationTemplate))

type bookingConfirmationData struct {
	Name            string
	PackageName     string
	Date            string
	Time            string
	DurationMinutes int
	Price           int
	BookingID       string
}

func buildBookingConfirmationHTML(booking bookings.Booking, client models.User) (string, error) {
	data := bookingConfirmationData{
		Name:            client.Name,
		PackageName:     booking.PackageName,
		Date:            booking.Date,
		Time:            booking.Time,
		DurationMinutes: booking.DurationMinutes,
		Price:           booking.Price,
		BookingID:       booking.ID,
	}
	var buf bytes.Buffer
	if err := bookingConfirmationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
