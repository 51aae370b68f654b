package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		pterm.Error.WithWriter(os.Stderr).Println(err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		pterm.Success.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AuthResult:
		o.printAuthResult(v)
	case Account:
		o.printAccount(v)
	case []Account:
		o.printAccounts(v)
	case Balance:
		o.printBalance(v)
	case NextClaim:
		o.printNextClaim(v)
	case Owner:
		o.printKeyValues([][]string{{"Owner", v.Owner}})
	case Contract:
		o.printContract(v)
	case Receipt:
		o.printReceipt(v)
	case []Event:
		o.printEvents(v)
	case HealthResult:
		o.printKeyValues([][]string{{"Status", v.Status}})
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// AuthResult is a session issued by register or login
type AuthResult struct {
	Token     string    `json:"token"`
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Account response type (matches API)
type Account struct {
	Address     string     `json:"address"`
	Nickname    string     `json:"nickname"`
	Rating      int64      `json:"rating"`
	Balance     string     `json:"balance"`
	Participant bool       `json:"participant"`
	LastClaimAt *time.Time `json:"last_claim_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Balance response type
type Balance struct {
	Address string `json:"address,omitempty"`
	Wei     string `json:"wei"`
	Ether   string `json:"ether"`
}

// NextClaim response type
type NextClaim struct {
	Seconds int64 `json:"seconds"`
	Ready   bool  `json:"ready"`
}

// Owner response type
type Owner struct {
	Owner string `json:"owner"`
}

// Contract response type
type Contract struct {
	Address         string    `json:"address"`
	Owner           string    `json:"owner"`
	DeployedAt      time.Time `json:"deployed_at"`
	Balance         string    `json:"balance"`
	Stake           string    `json:"stake"`
	CooldownSeconds int64     `json:"cooldown_seconds"`
	ForbidRestake   bool      `json:"forbid_restake"`
}

// Event response type
type Event struct {
	Type      string    `json:"type"`
	TxID      string    `json:"tx_id"`
	Identity  string    `json:"identity"`
	Balance   string    `json:"balance"`
	Reward    string    `json:"reward"`
	Timestamp time.Time `json:"timestamp"`
}

// Receipt response type
type Receipt struct {
	TxID      string    `json:"tx_id"`
	Op        string    `json:"op"`
	From      string    `json:"from"`
	Target    string    `json:"target,omitempty"`
	Value     string    `json:"value"`
	Payout    string    `json:"payout"`
	Events    []Event   `json:"events"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printKeyValues(rows [][]string) {
	_ = pterm.DefaultTable.WithData(pterm.TableData(rows)).Render()
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printKeyValues([][]string{
		{"Address", a.Address},
		{"Token", a.Token},
		{"Expires", a.ExpiresAt.Format(time.RFC3339)},
	})
}

func (o *Output) printAccount(a Account) {
	lastClaim := "never"
	if a.LastClaimAt != nil {
		lastClaim = a.LastClaimAt.Format(time.RFC3339)
	}
	o.printKeyValues([][]string{
		{"Address", a.Address},
		{"Nickname", a.Nickname},
		{"Rating", strconv.FormatInt(a.Rating, 10)},
		{"Balance (wei)", a.Balance},
		{"Participant", strconv.FormatBool(a.Participant)},
		{"Last claim", lastClaim},
	})
}

func (o *Output) printBalance(b Balance) {
	rows := [][]string{}
	if b.Address != "" {
		rows = append(rows, []string{"Address", b.Address})
	}
	rows = append(rows, []string{"Wei", b.Wei}, []string{"Ether", b.Ether})
	o.printKeyValues(rows)
}

func (o *Output) printNextClaim(n NextClaim) {
	if n.Ready {
		pterm.Success.Println("Claim available now")
		return
	}
	pterm.Info.Printfln("Next claim in %s", time.Duration(n.Seconds)*time.Second)
}

func (o *Output) printContract(c Contract) {
	o.printKeyValues([][]string{
		{"Contract", c.Address},
		{"Owner", c.Owner},
		{"Deployed", c.DeployedAt.Format(time.RFC3339)},
		{"Balance (wei)", c.Balance},
		{"Stake (wei)", c.Stake},
		{"Cooldown", (time.Duration(c.CooldownSeconds) * time.Second).String()},
		{"Forbid restake", strconv.FormatBool(c.ForbidRestake)},
	})
}

func (o *Output) printReceipt(r Receipt) {
	rows := [][]string{
		{"Tx", r.TxID},
		{"Op", r.Op},
		{"From", r.From},
	}
	if r.Target != "" {
		rows = append(rows, []string{"Target", r.Target})
	}
	rows = append(rows,
		[]string{"Value (wei)", r.Value},
		[]string{"Payout (wei)", r.Payout},
		[]string{"Time", r.Timestamp.Format(time.RFC3339)},
	)
	o.printKeyValues(rows)

	if len(r.Events) > 0 {
		fmt.Println()
		o.printEvents(r.Events)
	}
}

func (o *Output) printAccounts(accounts []Account) {
	if len(accounts) == 0 {
		pterm.Info.Println("No accounts")
		return
	}

	data := pterm.TableData{{"Address", "Nickname", "Rating", "Balance", "Participant"}}
	for _, a := range accounts {
		data = append(data, []string{
			a.Address,
			a.Nickname,
			strconv.FormatInt(a.Rating, 10),
			a.Balance,
			strconv.FormatBool(a.Participant),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (o *Output) printEvents(events []Event) {
	if len(events) == 0 {
		pterm.Info.Println("No events")
		return
	}

	data := pterm.TableData{{"Time", "Identity", "Reward", "Balance", "Tx"}}
	for _, e := range events {
		data = append(data, []string{
			e.Timestamp.Format(time.RFC3339),
			e.Identity,
			e.Reward,
			e.Balance,
			e.TxID,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
