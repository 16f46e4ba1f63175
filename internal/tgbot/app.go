package tgbot

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hackfinity-intake/internal/config"
	"hackfinity-intake/internal/form"
	"hackfinity-intake/internal/models"
	"hackfinity-intake/internal/payments"
	"hackfinity-intake/internal/store"
	"hackfinity-intake/internal/submit"
	"hackfinity-intake/internal/util"
)

// App hosts the four-step registration wizard as a Telegram
// conversation and gives organizers an admin menu.
type App struct {
	cfg     config.Config
	bot     *tgbotapi.BotAPI
	rows    store.RowStore
	pay     payments.PaymentProvider
	adapter *submit.Adapter

	// per-chat wizard sessions; only touched from the update loop
	sessions map[int64]*session

	mu    sync.RWMutex
	chats map[string]int64 // registrant email -> chat, for payment notices
}

// session tracks one registrant's progress: the wizard form plus which
// field inside the current step we are prompting for.
type session struct {
	form      *form.Form
	field     int
	memberIdx int // which extra member slot step 3 is filling
}

func New(cfg config.Config, rows store.RowStore, pay payments.PaymentProvider, adapter *submit.Adapter) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	return &App{
		cfg:      cfg,
		bot:      b,
		rows:     rows,
		pay:      pay,
		adapter:  adapter,
		sessions: map[int64]*session{},
		chats:    map[string]int64{},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				if err := a.handleMessage(ctx, upd.Message); err != nil {
					log.Printf("handle msg: %v", err)
				}
			} else if upd.CallbackQuery != nil {
				if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
					log.Printf("handle cb: %v", err)
				}
			}
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) isAdmin(tgID int64) bool {
	return a.cfg.AdminTGIDs[tgID]
}

// NotifyAdmins pushes a just-accepted registration to every organizer.
// Called from the intake handler, fire-and-forget.
func (a *App) NotifyAdmins(rec models.RegistrationRecord) {
	size := int(rec.TeamSize)
	text := fmt.Sprintf("🆕 New registration\nTeam: %s (%d)\nLeader: %s %s\n%s\nPayment: %s",
		rec.TeamName, size, rec.FirstName, rec.LastName, rec.Email,
		util.YesNo(bool(rec.PaymentCompleted)),
	)
	for id := range a.cfg.AdminTGIDs {
		if err := a.SendText(id, text); err != nil {
			log.Printf("notify admin %d: %v", id, err)
		}
	}
}

// NotifyRegistrant messages the chat that registered the given email.
func (a *App) NotifyRegistrant(email string, text string) error {
	a.mu.RLock()
	chatID, ok := a.chats[email]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no chat known for %s", email)
	}
	return a.SendText(chatID, text)
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID
	txt := strings.TrimSpace(m.Text)

	if strings.HasPrefix(txt, "/start") {
		a.sessions[chatID] = &session{form: form.New()}
		if err := a.SendText(chatID, "Welcome to HACKFINITY 2025! Let's register your team.\nStep 1 of 4 — your details."); err != nil {
			return err
		}
		return a.prompt(chatID)
	}
	if strings.HasPrefix(txt, "/cancel") {
		delete(a.sessions, chatID)
		return a.SendText(chatID, "Registration cancelled. Send /start to begin again.")
	}
	if strings.HasPrefix(txt, "/admin") {
		if !a.isAdmin(chatID) {
			return a.SendText(chatID, "Access denied.")
		}
		return a.showAdminMenu(chatID)
	}
	if strings.HasPrefix(txt, "/broadcast") {
		if !a.isAdmin(chatID) {
			return a.SendText(chatID, "Access denied.")
		}
		body := strings.TrimSpace(strings.TrimPrefix(txt, "/broadcast"))
		if body == "" {
			return a.SendText(chatID, "Usage: /broadcast <message>")
		}
		sent := a.Broadcast(body)
		return a.SendText(chatID, fmt.Sprintf("✅ Broadcast delivered to %d chats.", sent))
	}

	s := a.sessions[chatID]
	if s == nil {
		return a.SendText(chatID, "Send /start to register for HACKFINITY 2025.")
	}

	if s.form.Status == form.StatusError && strings.EqualFold(txt, "retry") {
		s.form.Retry()
		return a.finishAndSubmit(ctx, chatID, s)
	}

	// a photo at the screenshot prompt becomes the payment screenshot
	if s.form.Step == form.StepPayment && s.field >= 2 && len(m.Photo) > 0 {
		return a.attachScreenshot(ctx, chatID, s, m)
	}

	return a.handleFieldInput(ctx, chatID, s, txt)
}

// prompt asks for the next field of the current step.
func (a *App) prompt(chatID int64) error {
	s := a.sessions[chatID]
	if s == nil {
		return nil
	}
	return a.SendText(chatID, a.promptText(s))
}

func (a *App) promptText(s *session) string {
	switch s.form.Step {
	case form.StepLeader:
		return [...]string{
			"First name:",
			"Last name:",
			"Email address:",
			"Phone number:",
		}[s.field]
	case form.StepAcademic:
		return [...]string{
			"Institution:",
			"Degree / programme:",
			"Graduation year:",
		}[s.field]
	case form.StepTeam:
		switch s.field {
		case 0:
			return "Team name:"
		case 1:
			return fmt.Sprintf("Team size (1-%d, including you):", models.MaxTeamSize)
		default:
			n := s.memberIdx + 2
			return [...]string{
				fmt.Sprintf("Member %d first name:", n),
				fmt.Sprintf("Member %d last name:", n),
				fmt.Sprintf("Member %d email:", n),
				fmt.Sprintf("Member %d phone:", n),
				fmt.Sprintf("Is member %d at the same institution/degree/year as you? (yes/no)", n),
				fmt.Sprintf("Member %d institution:", n),
				fmt.Sprintf("Member %d degree:", n),
				fmt.Sprintf("Member %d graduation year:", n),
			}[s.field-2]
		}
	case form.StepPayment:
		switch s.field {
		case 0:
			return "Do you agree to the terms and conditions? (yes/no)"
		case 1:
			return "Have you completed the registration fee payment? (yes/no)"
		default:
			return "Send a photo of your payment screenshot, or /skip to submit without one."
		}
	}
	return "Send /start to begin."
}

func (a *App) handleFieldInput(ctx context.Context, chatID int64, s *session, txt string) error {
	f := s.form
	r := &f.Record

	switch f.Step {
	case form.StepLeader:
		switch s.field {
		case 0:
			r.FirstName = txt
		case 1:
			r.LastName = txt
		case 2:
			r.Email = txt
		case 3:
			r.Phone = txt
		}
		if s.field < 3 {
			s.field++
			return a.prompt(chatID)
		}
		return a.advance(chatID, s, "Step 2 of 4 — academic info.")

	case form.StepAcademic:
		switch s.field {
		case 0:
			r.Institution = txt
		case 1:
			r.Degree = txt
		case 2:
			r.GraduationYear = txt
		}
		if s.field < 2 {
			s.field++
			return a.prompt(chatID)
		}
		return a.advance(chatID, s, "Step 3 of 4 — your team.")

	case form.StepTeam:
		return a.handleTeamInput(chatID, s, txt)

	case form.StepPayment:
		return a.handlePaymentInput(ctx, chatID, s, txt)
	}
	return nil
}

func (a *App) handleTeamInput(chatID int64, s *session, txt string) error {
	f := s.form
	r := &f.Record

	switch {
	case s.field == 0:
		r.TeamName = txt
		s.field = 1
		return a.prompt(chatID)

	case s.field == 1:
		size, err := strconv.Atoi(txt)
		if err != nil || size < 1 || size > models.MaxTeamSize {
			return a.SendText(chatID, fmt.Sprintf("Please send a number from 1 to %d.", models.MaxTeamSize))
		}
		r.TeamSize = models.FlexInt(size)
		if size == 1 {
			return a.advance(chatID, s, "Step 4 of 4 — payment & consent.")
		}
		s.field = 2
		s.memberIdx = 0
		return a.prompt(chatID)

	default:
		m := &r.Members[s.memberIdx]
		switch s.field - 2 {
		case 0:
			m.FirstName = txt
		case 1:
			m.LastName = txt
		case 2:
			m.Email = txt
		case 3:
			m.Phone = txt
		case 4:
			if util.NormalizeBool(txt) {
				f.SetSameAsLeader(s.memberIdx, true)
				return a.nextMemberOrAdvance(chatID, s)
			}
			f.SetSameAsLeader(s.memberIdx, false)
			s.field++
			return a.prompt(chatID)
		case 5:
			m.Institution = txt
		case 6:
			m.Degree = txt
		case 7:
			m.GraduationYear = txt
			return a.nextMemberOrAdvance(chatID, s)
		}
		s.field++
		return a.prompt(chatID)
	}
}

func (a *App) nextMemberOrAdvance(chatID int64, s *session) error {
	if s.memberIdx+1 < int(s.form.Record.TeamSize)-1 {
		s.memberIdx++
		s.field = 2
		return a.prompt(chatID)
	}
	return a.advance(chatID, s, "Step 4 of 4 — payment & consent.")
}

func (a *App) handlePaymentInput(ctx context.Context, chatID int64, s *session, txt string) error {
	f := s.form
	r := &f.Record

	switch s.field {
	case 0:
		if !util.NormalizeBool(txt) {
			return a.SendText(chatID, "You must agree to the terms to register. (yes/no)")
		}
		r.AgreeToTerms = true
		s.field = 1
		return a.prompt(chatID)

	case 1:
		if util.NormalizeBool(txt) {
			r.PaymentCompleted = true
			s.field = 2
			return a.prompt(chatID)
		}
		return a.offerPayment(ctx, chatID, r.Email)

	default:
		if strings.HasPrefix(txt, "/skip") {
			return a.finishAndSubmit(ctx, chatID, s)
		}
		return a.SendText(chatID, "Send the screenshot as a photo, or /skip.")
	}
}

func (a *App) offerPayment(ctx context.Context, chatID int64, email string) error {
	payURL, _, err := a.pay.CreatePayment(ctx, email, "0", "")
	if err != nil {
		return a.SendText(chatID, "Could not create a payment link, please pay manually and answer yes.")
	}
	return a.SendText(chatID,
		"Please complete the registration fee first:\n"+payURL+
			"\n\nThen answer yes to continue.")
}

// attachScreenshot downloads the largest photo size and embeds it as a
// base64 data URI, exactly how the browser form transmits it.
func (a *App) attachScreenshot(ctx context.Context, chatID int64, s *session, m *tgbotapi.Message) error {
	photo := m.Photo[len(m.Photo)-1]
	url, err := a.bot.GetFileDirectURL(photo.FileID)
	if err != nil {
		return a.SendText(chatID, "Could not fetch that photo, try again or /skip.")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return a.SendText(chatID, "Could not download that photo, try again or /skip.")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return a.SendText(chatID, "Could not download that photo, try again or /skip.")
	}

	s.form.Record.PaymentScreenshotBase64 = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
	s.form.Record.PaymentScreenshot = photo.FileUniqueID + ".jpg"

	return a.finishAndSubmit(ctx, chatID, s)
}

// advance runs the step validation and either moves on or replays the
// step's prompts with the error list.
func (a *App) advance(chatID int64, s *session, nextIntro string) error {
	if !s.form.Advance() {
		lines := make([]string, 0, len(s.form.Errors))
		for _, msg := range s.form.Errors {
			lines = append(lines, "• "+msg)
		}
		s.field = 0
		s.memberIdx = 0
		if err := a.SendText(chatID, "Some details need fixing:\n"+strings.Join(lines, "\n")+"\n\nLet's go through this step again."); err != nil {
			return err
		}
		return a.prompt(chatID)
	}
	s.field = 0
	s.memberIdx = 0
	if err := a.SendText(chatID, nextIntro); err != nil {
		return err
	}
	return a.prompt(chatID)
}

func (a *App) finishAndSubmit(ctx context.Context, chatID int64, s *session) error {
	if err := a.SendText(chatID, "Submitting your registration..."); err != nil {
		return err
	}

	if err := s.form.Submit(ctx, a.adapter); err != nil {
		log.Printf("submit for chat %d: %v", chatID, err)
		return a.SendText(chatID, "😕 Something went wrong, your answers are saved. Type 'retry' to try again or /cancel to give up.")
	}

	a.mu.Lock()
	a.chats[s.form.Record.Email] = chatID
	a.mu.Unlock()

	delete(a.sessions, chatID)
	return a.SendText(chatID, "🎉 You're in! Your HACKFINITY 2025 registration was submitted successfully. See you at the hackathon!")
}

// ---------- Admin ----------

func (a *App) showAdminMenu(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🛠 HACKFINITY admin")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Count", "a:count"),
			tgbotapi.NewInlineKeyboardButtonData("📤 CSV export", "a:export"),
		),
	)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	chatID := q.From.ID
	data := q.Data

	// ack
	cb := tgbotapi.NewCallback(q.ID, "")
	_, _ = a.bot.Request(cb)

	if !strings.HasPrefix(data, "a:") {
		return nil
	}
	if !a.isAdmin(chatID) {
		return a.SendText(chatID, "Access denied.")
	}

	switch data {
	case "a:count":
		all, err := a.rows.ListRows(ctx)
		if err != nil {
			return err
		}
		n := len(all) - 1 // minus header
		if n < 0 {
			n = 0
		}
		return a.SendText(chatID, fmt.Sprintf("📊 Registrations so far: %d", n))
	case "a:export":
		token := util.HMACSHA256Hex(a.cfg.ExportSecret, "export:registrations")
		url := a.cfg.BasePublicURL + "/export/registrations.csv?token=" + token
		if a.cfg.BasePublicURL == "" {
			url = "http://localhost" + a.cfg.HTTPAddr + "/export/registrations.csv?token=" + token
		}
		return a.SendText(chatID, "📤 CSV export link:\n"+url)
	}
	return nil
}

// simple anti-flood pause between outgoing broadcast messages
const broadcastPause = 35 * time.Millisecond

// Broadcast sends a text to every chat that completed a registration.
func (a *App) Broadcast(text string) int {
	a.mu.RLock()
	ids := make([]int64, 0, len(a.chats))
	for _, id := range a.chats {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	sent := 0
	for _, id := range ids {
		if err := a.SendText(id, "📢 Message from the organizers: "+text); err == nil {
			sent++
		}
		time.Sleep(broadcastPause)
	}
	return sent
}
