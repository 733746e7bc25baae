package grpc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

// 訊息欄位
const (
	fieldID          = "id"
	fieldDescription = "description"
	fieldAmount      = "amount"
	fieldDate        = "date"
	fieldBalance     = "balance"
	fieldCredits     = "credits"
	fieldDebits      = "debits"
	fieldUser        = "user"
	fieldUserName    = "userName"
	fieldMemberSince = "memberSince"
	fieldVersion     = "version"
	fieldKind        = "kind"
	fieldEntry       = "entry"
	fieldAt          = "at"
)

// txToMap 金額用字串傳遞，避免 float64 失真
func txToMap(tx domain.Transaction) map[string]any {
	m := map[string]any{
		fieldDescription: tx.Description,
		fieldAmount:      tx.Amount.String(),
	}
	if tx.ID != uuid.Nil {
		m[fieldID] = tx.ID.String()
	}
	if !tx.OccurredAt.IsZero() {
		m[fieldDate] = tx.OccurredAt.Format(time.RFC3339Nano)
	}
	return m
}

func listToValues(list []domain.Transaction) []any {
	out := make([]any, 0, len(list))
	for _, tx := range list {
		out = append(out, txToMap(tx))
	}
	return out
}

func stateToStruct(s domain.State) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldBalance: s.BalanceString(),
		fieldCredits: listToValues(s.Credits),
		fieldDebits:  listToValues(s.Debits),
		fieldUser: map[string]any{
			fieldUserName:    s.User.UserName,
			fieldMemberSince: s.User.MemberSince,
		},
		fieldVersion: s.Version,
	})
}

func eventToStruct(ev domain.Event) (*structpb.Struct, error) {
	m := map[string]any{
		fieldKind:     string(ev.Kind),
		fieldBalance:  ev.Balance,
		fieldUserName: ev.UserName,
		fieldVersion:  ev.Version,
		fieldAt:       ev.At.Format(time.RFC3339Nano),
	}
	if ev.Entry != nil {
		m[fieldEntry] = txToMap(*ev.Entry)
	}
	return structpb.NewStruct(m)
}

// txFromStruct 解析使用者送來的交易，amount 可為數字或字串
func txFromStruct(st *structpb.Struct) (domain.Transaction, error) {
	fields := st.GetFields()
	description := fields[fieldDescription].GetStringValue()

	var tx domain.Transaction
	var err error
	switch v := fields[fieldAmount].GetKind().(type) {
	case *structpb.Value_NumberValue:
		tx, err = domain.NewTransactionFromFloat(description, v.NumberValue, time.Time{})
	case *structpb.Value_StringValue:
		var amount decimal.Decimal
		amount, err = domain.ParseAmount(v.StringValue)
		if err == nil {
			tx, err = domain.NewTransaction(description, amount, time.Time{})
		}
	default:
		err = &domain.ValidationError{Field: fieldAmount, Err: domain.ErrAmountInvalid}
	}
	if err != nil {
		return domain.Transaction{}, err
	}

	if raw := fields[fieldDate].GetStringValue(); raw != "" {
		at, err := domain.ParseDate(raw)
		if err != nil {
			return domain.Transaction{}, &domain.ValidationError{Field: fieldDate, Err: domain.ErrDateInvalid}
		}
		tx.OccurredAt = at
	}
	if raw := fields[fieldID].GetStringValue(); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			tx.ID = id
		}
	}
	return tx, nil
}

func listFromValue(v *structpb.Value) ([]domain.Transaction, error) {
	values := v.GetListValue().GetValues()
	out := make([]domain.Transaction, 0, len(values))
	for i, item := range values {
		tx, err := txFromStruct(item.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func userUpdateFromStruct(st *structpb.Struct) domain.UserUpdate {
	fields := st.GetFields()
	update := domain.UserUpdate{UserName: fields[fieldUserName].GetStringValue()}
	if v, ok := fields[fieldMemberSince]; ok {
		memberSince := v.GetStringValue()
		update.MemberSince = &memberSince
	}
	return update
}

func stateFromStruct(st *structpb.Struct) (domain.State, error) {
	fields := st.GetFields()
	balance, err := decimal.NewFromString(fields[fieldBalance].GetStringValue())
	if err != nil {
		return domain.State{}, fmt.Errorf("invalid balance: %w", err)
	}
	credits, err := listFromValue(fields[fieldCredits])
	if err != nil {
		return domain.State{}, fmt.Errorf("credits: %w", err)
	}
	debits, err := listFromValue(fields[fieldDebits])
	if err != nil {
		return domain.State{}, fmt.Errorf("debits: %w", err)
	}
	user := fields[fieldUser].GetStructValue().GetFields()
	return domain.State{
		Balance: balance,
		Credits: credits,
		Debits:  debits,
		User: domain.User{
			UserName:    user[fieldUserName].GetStringValue(),
			MemberSince: user[fieldMemberSince].GetStringValue(),
		},
		Version: uint64(fields[fieldVersion].GetNumberValue()),
	}, nil
}

func eventFromStruct(st *structpb.Struct) (domain.Event, error) {
	fields := st.GetFields()
	ev := domain.Event{
		Kind:     domain.EventKind(fields[fieldKind].GetStringValue()),
		Balance:  fields[fieldBalance].GetStringValue(),
		UserName: fields[fieldUserName].GetStringValue(),
		Version:  uint64(fields[fieldVersion].GetNumberValue()),
	}
	if raw := fields[fieldAt].GetStringValue(); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.Event{}, fmt.Errorf("invalid event time: %w", err)
		}
		ev.At = at
	}
	if v, ok := fields[fieldEntry]; ok {
		tx, err := txFromStruct(v.GetStructValue())
		if err != nil {
			return domain.Event{}, fmt.Errorf("entry: %w", err)
		}
		ev.Entry = &tx
	}
	return ev, nil
}
