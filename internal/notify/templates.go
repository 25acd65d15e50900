package notify

import (
	"fmt"
	"html"

	"github.com/naodludzie/backend/pkg/events"
)

// Email is a rendered message ready for the mail provider.
type Email struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// User-supplied strings are escaped before they reach an HTML body.
func esc(s string) string { return html.EscapeString(s) }

func bookingRequestedEmail(e events.BookingRequestedEvent) Email {
	if e.Anonymous {
		return anonymousBookingRequestedEmail(e)
	}

	subject := fmt.Sprintf("Nowe zapytanie o rezerwację: %s", e.CabinTitle)
	text := fmt.Sprintf(
		"Masz nowe zapytanie o rezerwację obiektu %s.\n\n"+
			"Gość: %s (%s)\nTermin: %s – %s\nLiczba osób: %d\n\nWiadomość od gościa:\n%s\n\n"+
			"Zaloguj się, aby zaakceptować lub odrzucić zapytanie. Bez decyzji wygaśnie po 24 godzinach.",
		e.CabinTitle, e.GuestName, e.GuestEmail, e.StartDate, e.EndDate, e.GuestsCount, e.Message)
	htmlBody := fmt.Sprintf(
		`<h2>Nowe zapytanie o rezerwację</h2>
<p>Obiekt: <strong>%s</strong></p>
<p>Gość: %s (%s)<br>Termin: %s &ndash; %s<br>Liczba osób: %d</p>
<blockquote>%s</blockquote>
<p>Zaloguj się, aby zaakceptować lub odrzucić zapytanie. Bez decyzji wygaśnie po 24 godzinach.</p>`,
		esc(e.CabinTitle), esc(e.GuestName), esc(e.GuestEmail), e.StartDate, e.EndDate, e.GuestsCount, esc(e.Message))

	return Email{ToEmail: e.HostEmail, Subject: subject, Text: text, HTML: htmlBody}
}

// anonymousBookingRequestedEmail covers requests sent without an account. The
// guest cannot see the in-app chat, so the host is told to reply by email.
func anonymousBookingRequestedEmail(e events.BookingRequestedEvent) Email {
	subject := fmt.Sprintf("Nowe zapytanie o rezerwację (gość bez konta): %s", e.CabinTitle)
	text := fmt.Sprintf(
		"Masz nowe zapytanie o rezerwację obiektu %s.\n\n"+
			"Gość: %s (%s)\nTermin: %s – %s\nLiczba osób: %d\n\nWiadomość od gościa:\n%s\n\n"+
			"Gość nie ma konta w serwisie i nie zobaczy czatu. Odpowiedz bezpośrednio na adres %s.\n"+
			"Zaloguj się, aby zaakceptować lub odrzucić zapytanie. Bez decyzji wygaśnie po 24 godzinach.",
		e.CabinTitle, e.GuestName, e.GuestEmail, e.StartDate, e.EndDate, e.GuestsCount, e.Message, e.GuestEmail)
	htmlBody := fmt.Sprintf(
		`<h2>Nowe zapytanie o rezerwację</h2>
<p>Obiekt: <strong>%s</strong></p>
<p>Gość: %s (%s)<br>Termin: %s &ndash; %s<br>Liczba osób: %d</p>
<blockquote>%s</blockquote>
<p>Gość nie ma konta w serwisie i nie zobaczy czatu. Odpowiedz bezpośrednio na adres <a href="mailto:%s">%s</a>.</p>
<p>Zaloguj się, aby zaakceptować lub odrzucić zapytanie. Bez decyzji wygaśnie po 24 godzinach.</p>`,
		esc(e.CabinTitle), esc(e.GuestName), esc(e.GuestEmail), e.StartDate, e.EndDate, e.GuestsCount,
		esc(e.Message), esc(e.GuestEmail), esc(e.GuestEmail))

	return Email{ToEmail: e.HostEmail, Subject: subject, Text: text, HTML: htmlBody}
}

func bookingApprovedEmail(e events.BookingDecidedEvent) Email {
	subject := fmt.Sprintf("Rezerwacja potwierdzona: %s", e.CabinTitle)
	text := fmt.Sprintf(
		"Cześć %s,\n\nGospodarz potwierdził Twoją rezerwację obiektu %s w terminie %s – %s.\n\n%s"+
			"Szczegóły płatności i kontakt do gospodarza znajdziesz w panelu rezerwacji.",
		e.GuestName, e.CabinTitle, e.StartDate, e.EndDate, commentBlock(e.HostComment))
	htmlBody := fmt.Sprintf(
		`<h2>Rezerwacja potwierdzona</h2>
<p>Cześć %s,</p>
<p>Gospodarz potwierdził Twoją rezerwację obiektu <strong>%s</strong> w terminie %s &ndash; %s.</p>
%s<p>Szczegóły płatności i kontakt do gospodarza znajdziesz w panelu rezerwacji.</p>`,
		esc(e.GuestName), esc(e.CabinTitle), e.StartDate, e.EndDate, commentBlockHTML(e.HostComment))

	return Email{ToEmail: e.GuestEmail, ToName: e.GuestName, Subject: subject, Text: text, HTML: htmlBody}
}

func bookingRejectedEmail(e events.BookingDecidedEvent) Email {
	subject := fmt.Sprintf("Zapytanie odrzucone: %s", e.CabinTitle)
	text := fmt.Sprintf(
		"Cześć %s,\n\nNiestety gospodarz odrzucił Twoje zapytanie o rezerwację obiektu %s w terminie %s – %s.\n\n%s"+
			"Zachęcamy do wyszukania innego terminu lub obiektu.",
		e.GuestName, e.CabinTitle, e.StartDate, e.EndDate, commentBlock(e.HostComment))
	htmlBody := fmt.Sprintf(
		`<h2>Zapytanie odrzucone</h2>
<p>Cześć %s,</p>
<p>Niestety gospodarz odrzucił Twoje zapytanie o rezerwację obiektu <strong>%s</strong> w terminie %s &ndash; %s.</p>
%s<p>Zachęcamy do wyszukania innego terminu lub obiektu.</p>`,
		esc(e.GuestName), esc(e.CabinTitle), e.StartDate, e.EndDate, commentBlockHTML(e.HostComment))

	return Email{ToEmail: e.GuestEmail, ToName: e.GuestName, Subject: subject, Text: text, HTML: htmlBody}
}

func commentBlock(comment string) string {
	if comment == "" {
		return ""
	}
	return fmt.Sprintf("Komentarz gospodarza:\n%s\n\n", comment)
}

func commentBlockHTML(comment string) string {
	if comment == "" {
		return ""
	}
	return fmt.Sprintf("<blockquote>%s</blockquote>\n", esc(comment))
}

func bookingExpiredGuestEmail(e events.BookingExpiredEvent) Email {
	subject := fmt.Sprintf("Zapytanie wygasło: %s", e.CabinTitle)
	text := fmt.Sprintf(
		"Cześć %s,\n\nTwoje zapytanie o rezerwację obiektu %s w terminie %s – %s wygasło, "+
			"ponieważ gospodarz nie odpowiedział w ciągu 24 godzin.\n\nMożesz wysłać nowe zapytanie.",
		e.GuestName, e.CabinTitle, e.StartDate, e.EndDate)
	htmlBody := fmt.Sprintf(
		`<h2>Zapytanie wygasło</h2>
<p>Cześć %s,</p>
<p>Twoje zapytanie o rezerwację obiektu <strong>%s</strong> w terminie %s &ndash; %s wygasło,
ponieważ gospodarz nie odpowiedział w ciągu 24 godzin.</p>
<p>Możesz wysłać nowe zapytanie.</p>`,
		esc(e.GuestName), esc(e.CabinTitle), e.StartDate, e.EndDate)

	return Email{ToEmail: e.GuestEmail, ToName: e.GuestName, Subject: subject, Text: text, HTML: htmlBody}
}

func bookingExpiredHostEmail(e events.BookingExpiredEvent) Email {
	subject := fmt.Sprintf("Zapytanie wygasło bez odpowiedzi: %s", e.CabinTitle)
	text := fmt.Sprintf(
		"Zapytanie gościa %s o obiekt %s (termin %s – %s) wygasło bez Twojej decyzji.\n\n"+
			"Odpowiadaj na zapytania w ciągu 24 godzin, aby nie tracić rezerwacji.",
		e.GuestName, e.CabinTitle, e.StartDate, e.EndDate)
	htmlBody := fmt.Sprintf(
		`<h2>Zapytanie wygasło bez odpowiedzi</h2>
<p>Zapytanie gościa %s o obiekt <strong>%s</strong> (termin %s &ndash; %s) wygasło bez Twojej decyzji.</p>
<p>Odpowiadaj na zapytania w ciągu 24 godzin, aby nie tracić rezerwacji.</p>`,
		esc(e.GuestName), esc(e.CabinTitle), e.StartDate, e.EndDate)

	return Email{ToEmail: e.HostEmail, Subject: subject, Text: text, HTML: htmlBody}
}

func cabinStatusEmail(e events.CabinStatusChangedEvent) Email {
	var subject, text, htmlBody string
	switch e.Status {
	case "active":
		subject = fmt.Sprintf("Ogłoszenie aktywne: %s", e.CabinTitle)
		text = fmt.Sprintf(
			"Twoje ogłoszenie %s zostało zaakceptowane i jest widoczne w wyszukiwarce przez 60 dni.",
			e.CabinTitle)
		htmlBody = fmt.Sprintf(
			`<h2>Ogłoszenie aktywne</h2><p>Twoje ogłoszenie <strong>%s</strong> zostało zaakceptowane i jest widoczne w wyszukiwarce przez 60 dni.</p>`,
			esc(e.CabinTitle))
	case "rejected":
		subject = fmt.Sprintf("Ogłoszenie odrzucone: %s", e.CabinTitle)
		text = fmt.Sprintf(
			"Twoje ogłoszenie %s zostało odrzucone.\n\nPowód: %s\n\nPopraw ogłoszenie i zgłoś je ponownie.",
			e.CabinTitle, e.Reason)
		htmlBody = fmt.Sprintf(
			`<h2>Ogłoszenie odrzucone</h2><p>Twoje ogłoszenie <strong>%s</strong> zostało odrzucone.</p><blockquote>%s</blockquote><p>Popraw ogłoszenie i zgłoś je ponownie.</p>`,
			esc(e.CabinTitle), esc(e.Reason))
	default:
		subject = fmt.Sprintf("Ogłoszenie wymaga odnowienia: %s", e.CabinTitle)
		text = fmt.Sprintf(
			"Okres widoczności ogłoszenia %s dobiegł końca. Zaloguj się i odnów ogłoszenie, aby wróciło do wyszukiwarki.",
			e.CabinTitle)
		htmlBody = fmt.Sprintf(
			`<h2>Ogłoszenie wymaga odnowienia</h2><p>Okres widoczności ogłoszenia <strong>%s</strong> dobiegł końca. Zaloguj się i odnów ogłoszenie, aby wróciło do wyszukiwarki.</p>`,
			esc(e.CabinTitle))
	}

	return Email{ToEmail: e.HostEmail, Subject: subject, Text: text, HTML: htmlBody}
}

func paymentAccountEmail(e events.PaymentAccountUpdatedEvent) Email {
	status := "w trakcie weryfikacji"
	if e.ChargesEnabled {
		status = "gotowe do przyjmowania płatności"
	}
	subject := "Aktualizacja konta płatności"
	text := fmt.Sprintf("Status Twojego konta płatności online: %s.", status)
	htmlBody := fmt.Sprintf(`<p>Status Twojego konta płatności online: <strong>%s</strong>.</p>`, status)

	return Email{ToEmail: e.HostEmail, Subject: subject, Text: text, HTML: htmlBody}
}

func manualVerificationEmail(e events.ManualVerificationApprovedEvent) Email {
	subject := fmt.Sprintf("Weryfikacja przelewu zakończona: %s", e.CabinTitle)
	text := fmt.Sprintf(
		"Przelew weryfikacyjny dla obiektu %s dotarł. Płatności przelewem tradycyjnym są już aktywne dla tego ogłoszenia.",
		e.CabinTitle)
	htmlBody := fmt.Sprintf(
		`<h2>Weryfikacja zakończona</h2><p>Przelew weryfikacyjny dla obiektu <strong>%s</strong> dotarł. Płatności przelewem tradycyjnym są już aktywne dla tego ogłoszenia.</p>`,
		esc(e.CabinTitle))

	return Email{ToEmail: e.HostEmail, Subject: subject, Text: text, HTML: htmlBody}
}

func contactEmail(adminEmail string, e events.ContactReceivedEvent) Email {
	subject := fmt.Sprintf("[Kontakt] %s", e.Subject)
	text := fmt.Sprintf("Od: %s <%s>\n\n%s", e.Name, e.Email, e.Body)
	htmlBody := fmt.Sprintf(
		`<p>Od: %s &lt;%s&gt;</p><blockquote>%s</blockquote>`,
		esc(e.Name), esc(e.Email), esc(e.Body))

	return Email{ToEmail: adminEmail, Subject: subject, Text: text, HTML: htmlBody}
}
