package model

import "time"

// ReportTarget は通報対象の種別を表す。
type ReportTarget string

const (
	// ReportTargetUser はアカウントに対する通報。
	ReportTargetUser ReportTarget = "User"
	// ReportTargetConversation は会話に対する通報。
	ReportTargetConversation ReportTarget = "Conversation"
)

// Valid は定義済みのReportTargetかどうかを返す。
func (t ReportTarget) Valid() bool {
	return t == ReportTargetUser || t == ReportTargetConversation
}

// ReportReason は通報理由を表す。
type ReportReason string

const (
	// ReasonOffensive は不快なコンテンツ。
	ReasonOffensive ReportReason = "Offensive"
	// ReasonHarrassment は嫌がらせ。
	ReasonHarrassment ReportReason = "Harrassment"
	// ReasonSpam はスパム。
	ReasonSpam ReportReason = "Spam"
	// ReasonFakeProfile は偽プロフィール。
	ReasonFakeProfile ReportReason = "FakeProfile"
)

// Valid は定義済みのReportReasonかどうかを返す。
func (r ReportReason) Valid() bool {
	switch r {
	case ReasonOffensive, ReasonHarrassment, ReasonSpam, ReasonFakeProfile:
		return true
	}
	return false
}

// Report はユーザーからの通報を表す。
// 対象種別に応じてReportedAccountIDまたはReportedConversationIDのどちらかを持つ。
type Report struct {
	ID                     string
	Target                 ReportTarget
	ReportedAccountID      string
	ReportedConversationID string
	Reason                 ReportReason
	ExtraInformation       string
	CreatedAt              time.Time
}
