package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"hackfinity-intake/internal/blob"
	"hackfinity-intake/internal/config"
	"hackfinity-intake/internal/intake"
	"hackfinity-intake/internal/models"
	"hackfinity-intake/internal/payments"
	"hackfinity-intake/internal/store"
	"hackfinity-intake/internal/tgbot"
	"hackfinity-intake/internal/util"
)

// submissions larger than this are junk, screenshots included
const maxBodyBytes = 10 << 20

func New(cfg config.Config, rows store.RowStore, shots blob.Store, pay payments.PaymentProvider, bot *tgbot.App) *http.Server {
	mux := http.NewServeMux()

	// Intake endpoint. GET doubles as the health check and OPTIONS is
	// the CORS preflight stub the browser form needs.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		corsHeaders(w)
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			writeJSON(w, map[string]any{
				"status":    "ok",
				"service":   "hackfinity-intake",
				"timestamp": util.NowISO(),
			})
		case http.MethodPost:
			handleIntake(w, r, rows, shots, bot)
		default:
			respond(w, false, "method not allowed")
		}
	})

	// Serve locally stored screenshots in dev/demo mode.
	if shots != nil && shots.Name() == "local" {
		mux.Handle("/screenshots/", http.StripPrefix("/screenshots/",
			http.FileServer(http.Dir(cfg.ScreenshotDir))))
	}

	// Stub payment page (for testing)
	mux.HandleFunc("/pay/stub", func(w http.ResponseWriter, r *http.Request) {
		invoice := r.URL.Query().Get("invoice")
		if invoice == "" {
			http.Error(w, "invoice required", http.StatusBadRequest)
			return
		}
		// Simple HTML with buttons that trigger the webhook. A real
		// provider would host its own checkout.
		html := `<!doctype html><html><head><meta charset="utf-8"><title>Stub Pay</title></head><body>
<h2>Registration fee (test provider)</h2>
<p>Invoice: ` + invoice + `</p>
<button onclick="pay()">Pay (paid)</button>
<button onclick="cancelPay()">Cancel (cancelled)</button>
<pre id="out"></pre>
<script>
async function send(status){
  const body = JSON.stringify({invoice: "` + invoice + `", status});
  const res = await fetch("/webhooks/stub", {method:"POST", headers: {"Content-Type":"application/json"}, body});
  document.getElementById("out").textContent = await res.text();
}
function pay(){ send("paid"); }
function cancelPay(){ send("cancelled"); }
// Signature is omitted here; the server re-signs for itself when
// running locally. Use a real provider in prod.
</script>
</body></html>`
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	})

	// Payment webhooks
	mux.HandleFunc("/webhooks/stub", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "could not read body", http.StatusBadRequest)
			return
		}
		headers := map[string]string{}
		for k, v := range r.Header {
			if len(v) > 0 {
				headers[strings.ToLower(k)] = v[0]
			}
		}

		// DEV: the stub page sends no signature, so compute it
		// server-side when running locally
		if headers["x-signature"] == "" && (cfg.BasePublicURL == "" || strings.Contains(cfg.BasePublicURL, "localhost")) {
			headers["x-signature"] = util.HMACSHA256Hex(cfg.PaymentWebhookSecret, string(body))
		}

		email, status, err := pay.HandleWebhook(r.Context(), body, headers)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		completed := status != "cancelled"
		matched := false
		if completed {
			matched, err = rows.SetPaymentCompleted(r.Context(), email)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		// Tell the registrant in Telegram, if we know their chat
		if bot != nil {
			go func() {
				msg := "✅ Payment confirmed. Your registration fee is settled."
				if !completed {
					msg = "❌ Payment cancelled."
				}
				if err := bot.NotifyRegistrant(email, msg); err != nil {
					log.Printf("notify registrant: %v", err)
				}
			}()
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"email":   email,
			"paid":    completed,
			"matched": matched,
			"ts":      util.NowISO(),
		})
	})

	// CSV export (admin-only link with token = HMAC)
	mux.HandleFunc("/export/registrations.csv", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "token required", http.StatusBadRequest)
			return
		}
		expected := util.HMACSHA256Hex(cfg.ExportSecret, "export:registrations")
		if token != expected {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		all, err := rows.ListRows(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// Build the document first so a mid-write failure cannot leak a
		// truncated export under a 200.
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		for _, row := range all {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = fmt.Sprint(c)
			}
			if err := cw.Write(cells); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="registrations.csv"`)
		_, _ = w.Write(buf.Bytes())
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func handleIntake(w http.ResponseWriter, r *http.Request, rows store.RowStore, shots blob.Store, bot *tgbot.App) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respond(w, false, "could not read request body")
		return
	}

	rec, path, err := intake.Decode(intake.Input{
		DataParam: r.URL.Query().Get("data"),
		Body:      body,
	})
	if err != nil {
		log.Printf("intake: no usable payload (%d bytes)", len(body))
		respond(w, false, "No data received")
		return
	}
	log.Printf("intake: decoded %s registration via %s", rec.Email, path)

	ts := strings.TrimSpace(rec.SubmissionTime)
	if ts == "" {
		ts = util.NowISO()
	}

	// Screenshot persistence degrades gracefully: a failed upload must
	// never cost the registrant their row.
	screenshotURL := ""
	screenshotName := strings.TrimSpace(rec.PaymentScreenshot)
	if rec.PaymentScreenshotBase64 != "" && shots != nil {
		data, err := blob.DecodeDataURI(rec.PaymentScreenshotBase64)
		if err != nil {
			log.Printf("intake: screenshot decode failed: %v", err)
		} else {
			name := blob.Filename(rec.FirstName, rec.LastName, ts)
			url, err := shots.Save(r.Context(), name, data)
			if err != nil {
				log.Printf("intake: screenshot save failed: %v", err)
			} else {
				screenshotURL = url
				if screenshotName == "" {
					screenshotName = name
				}
			}
		}
	}

	if err := rows.EnsureHeader(r.Context()); err != nil {
		log.Printf("intake: header check failed: %v", err)
		respond(w, false, "Failed to save registration")
		return
	}
	row := store.RowFromRecord(rec, screenshotURL, screenshotName, ts)
	if err := rows.Append(r.Context(), row); err != nil {
		log.Printf("intake: append failed: %v", err)
		respond(w, false, "Failed to save registration")
		return
	}

	if bot != nil {
		go bot.NotifyAdmins(rec)
	}

	respond(w, true, "Registration submitted successfully")
}

func corsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func respond(w http.ResponseWriter, success bool, message string) {
	// semantic result lives in the body; the browser can't read the
	// status code anyway
	writeJSON(w, models.IntakeResponse{
		Success:   success,
		Message:   message,
		Timestamp: util.NowISO(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
