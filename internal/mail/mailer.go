// Package mail はSMTP経由の通知メール送信を提供する。
package mail

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"

	"github.com/dajohi/goemail"
)

// Mailer は通知メール送信のインターフェース。
type Mailer interface {
	// SendAccountConfirmation はメールアドレス確認用のリンクを送信する。
	SendAccountConfirmation(toEmail, accountID, confirmToken string) error

	// SendPasswordReset はパスワードリセット用のリンクを送信する。
	SendPasswordReset(toEmail, resetToken string) error

	// SendNewMessageAlert は新着メッセージの通知を送信する。
	SendNewMessageAlert(toEmail, senderName string) error
}

// Client はgoemailを使用したSMTPメーラー。
// SMTP認証情報が未設定の場合はdisabledとなり、送信は何もせず成功扱いになる。
type Client struct {
	smtp        *goemail.SMTP
	mailName    string
	mailAddress string
	baseURL     string
	disabled    bool
}

// NewClient はSMTPクライアントを生成する。
// host・user・passwordのいずれかが空の場合、メール送信は無効化される。
func NewClient(host, user, password, emailAddress, baseURL string, skipVerify bool) (*Client, error) {
	if host == "" || user == "" || password == "" {
		slog.Info("mail disabled: smtp credentials not configured")
		return &Client{disabled: true}, nil
	}

	h := fmt.Sprintf("smtps://%v:%v@%v", user, password, host)
	u, err := url.Parse(h)
	if err != nil {
		return nil, fmt.Errorf("SMTPホストの解析に失敗しました: %w", err)
	}

	a, err := mail.ParseAddress(emailAddress)
	if err != nil {
		return nil, fmt.Errorf("送信元アドレスの解析に失敗しました: %w", err)
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: skipVerify,
	}

	smtp, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("SMTPクライアントの初期化に失敗しました: %w", err)
	}

	slog.Info("mail enabled", slog.String("host", host), slog.String("from", a.Address))

	return &Client{
		smtp:        smtp,
		mailName:    a.Name,
		mailAddress: a.Address,
		baseURL:     baseURL,
	}, nil
}

// send は1通のメールを送信する。disabledの場合は何もしない。
func (c *Client) send(toEmail, subject, body string) error {
	if c.disabled {
		return nil
	}

	msg := goemail.NewMessage(c.mailAddress, subject, body)
	msg.SetName(c.mailName)
	msg.AddTo(toEmail)

	return c.smtp.Send(msg)
}

// SendAccountConfirmation はメールアドレス確認用のリンクを送信する。
func (c *Client) SendAccountConfirmation(toEmail, accountID, confirmToken string) error {
	link := fmt.Sprintf("%s/confirmation/%s/%s", c.baseURL, accountID, confirmToken)
	body := fmt.Sprintf("ようこそ！\n\n"+
		"以下のリンクを開いてメールアドレスを確認してください。\n\n%s\n", link)

	return c.send(toEmail, "メールアドレスの確認", body)
}

// SendPasswordReset はパスワードリセット用のリンクを送信する。
func (c *Client) SendPasswordReset(toEmail, resetToken string) error {
	link := fmt.Sprintf("%s/reset/%s", c.baseURL, resetToken)
	body := fmt.Sprintf("パスワードリセットのリクエストを受け付けました。\n\n"+
		"以下のリンクから新しいパスワードを設定してください。\n\n%s\n\n"+
		"心当たりがない場合はこのメールを無視してください。\n", link)

	return c.send(toEmail, "パスワードのリセット", body)
}

// SendNewMessageAlert は新着メッセージの通知を送信する。
func (c *Client) SendNewMessageAlert(toEmail, senderName string) error {
	body := fmt.Sprintf("%sさんから新しいメッセージが届いています。\n\n"+
		"%s/messages からご確認ください。\n", senderName, c.baseURL)

	return c.send(toEmail, "新着メッセージのお知らせ", body)
}

// compile-time interface check
var _ Mailer = (*Client)(nil)
