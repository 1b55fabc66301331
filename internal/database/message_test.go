package database

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
)

// chatFixture is two users talking plus a group owned by the first with
// the second as a member, and an outsider who has nothing to do with
// either.
type chatFixture struct {
	d         *Database
	alice     *models.User
	bob       *models.User
	mallory   *models.User
	group     *models.Group
	alicePr   models.Principal
	bobPr     models.Principal
	malloryPr models.Principal
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	d := testDB(t)
	alice := mustCreateUser(t, d, "alice", "alice@example.com")
	bob := mustCreateUser(t, d, "bob", "bob@example.com")
	mallory := mustCreateUser(t, d, "mallory", "mallory@example.com")
	group := mustCreateGroup(t, d, "general", alice.ID)
	if err := d.AddGroupMember(group.ID, bob.ID); err != nil {
		t.Fatalf("add bob to group: %v", err)
	}

	return &chatFixture{
		d:         d,
		alice:     alice,
		bob:       bob,
		mallory:   mallory,
		group:     group,
		alicePr:   principalOf(t, d, alice.ID),
		bobPr:     principalOf(t, d, bob.ID),
		malloryPr: principalOf(t, d, mallory.ID),
	}
}

func (f *chatFixture) send(t *testing.T, from, toUser, toGroup, content string) *models.Message {
	t.Helper()
	msg, err := f.d.SendMessage(from, content, "", toUser, toGroup)
	if err != nil {
		t.Fatalf("send %q: %v", content, err)
	}
	// keep updated_at strictly increasing across sends
	time.Sleep(2 * time.Millisecond)
	return msg
}

func TestSendMessageDirect(t *testing.T) {
	f := newChatFixture(t)

	msg := f.send(t, f.alice.ID, f.bob.ID, "", "hi bob")
	if msg.ID == "" || !strings.Contains(msg.ID, "-") {
		t.Errorf("message id %q lacks the time prefix", msg.ID)
	}
	if msg.Type != models.MessageTypeText {
		t.Errorf("default type = %q, want text", msg.Type)
	}
	if msg.FromUser == nil || msg.FromUser.ID != f.alice.ID {
		t.Error("sender not attached to the returned message")
	}
	if msg.ToUserID == nil || *msg.ToUserID != f.bob.ID {
		t.Error("recipient not recorded")
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture(t)

	cases := []struct {
		name       string
		from       string
		toUser     string
		toGroup    string
		content    string
		wantStatus int
	}{
		{"empty content", f.alice.ID, f.bob.ID, "", "", http.StatusBadRequest},
		{"no target", f.alice.ID, "", "", "hello", http.StatusBadRequest},
		{"both targets", f.alice.ID, f.bob.ID, f.group.ID, "hello", http.StatusBadRequest},
		{"unknown sender", "nobody", f.bob.ID, "", "hello", http.StatusUnauthorized},
		{"unknown recipient", f.alice.ID, "nobody", "", "hello", http.StatusNotFound},
		{"unknown group", f.alice.ID, "", "nogroup", "hello", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.d.SendMessage(tc.from, tc.content, "", tc.toUser, tc.toGroup)
			if err == nil {
				t.Fatal("send succeeded, want error")
			}
			if got := apperrors.StatusOf(err); got != tc.wantStatus {
				t.Errorf("status = %d, want %d (%v)", got, tc.wantStatus, err)
			}
		})
	}

	var count int64
	if err := f.d.db.Model(&models.Message{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("%d messages persisted by failed sends", count)
	}
}

func TestSendMessageRejectsUnknownType(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.d.SendMessage(f.alice.ID, "hi", "carrier-pigeon", f.bob.ID, "")
	if err == nil {
		t.Fatal("unknown message type accepted")
	}
	if apperrors.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apperrors.StatusOf(err))
	}
}

func TestBroadcast(t *testing.T) {
	f := newChatFixture(t)

	msgs, err := f.d.Broadcast(f.alice.ID, "announcement", "", []string{f.bob.ID}, []string{f.group.ID})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ToUserID == nil || *msgs[0].ToUserID != f.bob.ID {
		t.Error("first message did not target bob")
	}
	if msgs[1].ToGroupID == nil || *msgs[1].ToGroupID != f.group.ID {
		t.Error("second message did not target the group")
	}
}

func TestBroadcastCapsTargets(t *testing.T) {
	f := newChatFixture(t)

	tooMany := make([]string, maxBroadcastTargets+1)
	for i := range tooMany {
		tooMany[i] = f.bob.ID
	}
	if _, err := f.d.Broadcast(f.alice.ID, "spam", "", tooMany, nil); err == nil {
		t.Error("oversized target list accepted")
	}
	if _, err := f.d.Broadcast(f.alice.ID, "void", "", nil, nil); err == nil {
		t.Error("empty target list accepted")
	}
}

func TestSearchMessagesVisibility(t *testing.T) {
	f := newChatFixture(t)

	f.send(t, f.alice.ID, f.bob.ID, "", "direct to bob")
	f.send(t, f.alice.ID, "", f.group.ID, "group hello")
	f.send(t, f.mallory.ID, f.alice.ID, "", "mallory to alice")

	// bob is a party to the direct message and a member of the group
	res, err := f.d.SearchMessages(f.bobPr, MessageFilter{}, pagination.Page{})
	if err != nil {
		t.Fatalf("bob search: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("bob sees %d messages, want 2", res.Total)
	}

	// mallory only ever sees her own message
	res, err = f.d.SearchMessages(f.malloryPr, MessageFilter{}, pagination.Page{})
	if err != nil {
		t.Fatalf("mallory search: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("mallory sees %d messages, want 1", res.Total)
	}

	admin := models.Principal{UserID: "admin", Admin: true}
	res, err = f.d.SearchMessages(admin, MessageFilter{}, pagination.Page{})
	if err != nil {
		t.Fatalf("admin search: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("admin sees %d messages, want 3", res.Total)
	}
}

func TestSearchMessagesForbiddenFilters(t *testing.T) {
	f := newChatFixture(t)
	f.send(t, f.alice.ID, f.bob.ID, "", "direct to bob")

	// another user's inbox
	_, err := f.d.SearchMessages(f.malloryPr, MessageFilter{ToUserID: f.bob.ID}, pagination.Page{})
	if apperrors.StatusOf(err) != http.StatusForbidden {
		t.Errorf("foreign inbox filter: status = %d, want 403", apperrors.StatusOf(err))
	}

	// a group the principal does not belong to
	_, err = f.d.SearchMessages(f.malloryPr, MessageFilter{ToGroupID: f.group.ID}, pagination.Page{})
	if apperrors.StatusOf(err) != http.StatusForbidden {
		t.Errorf("foreign group filter: status = %d, want 403", apperrors.StatusOf(err))
	}

	// filtering on your own sent messages is always allowed
	if _, err := f.d.SearchMessages(f.malloryPr, MessageFilter{FromUserID: f.mallory.ID}, pagination.Page{}); err != nil {
		t.Errorf("own outbox filter rejected: %v", err)
	}

	// anonymous principals are rejected outright
	_, err = f.d.SearchMessages(models.Principal{}, MessageFilter{}, pagination.Page{})
	if apperrors.StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("anonymous search: status = %d, want 401", apperrors.StatusOf(err))
	}
}

func TestConversation(t *testing.T) {
	f := newChatFixture(t)

	f.send(t, f.alice.ID, f.bob.ID, "", "one")
	f.send(t, f.bob.ID, f.alice.ID, "", "two")
	f.send(t, f.alice.ID, "", f.group.ID, "three")
	f.send(t, f.mallory.ID, f.alice.ID, "", "four")

	// user target covers both directions
	res, err := f.d.Conversation(f.alicePr, f.alice.ID, TargetUser, f.bob.ID, pagination.Page{})
	if err != nil {
		t.Fatalf("user conversation: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("alice/bob thread has %d messages, want 2", res.Total)
	}

	// group target is the master's messages into that group
	res, err = f.d.Conversation(f.alicePr, f.alice.ID, TargetGroup, f.group.ID, pagination.Page{})
	if err != nil {
		t.Fatalf("group conversation: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("alice/group thread has %d messages, want 1", res.Total)
	}

	// no target means everything involving the master
	res, err = f.d.Conversation(f.alicePr, f.alice.ID, "", "", pagination.Page{})
	if err != nil {
		t.Fatalf("untargeted conversation: %v", err)
	}
	if res.Total != 4 {
		t.Errorf("alice's full log has %d messages, want 4", res.Total)
	}

	// self-or-admin only
	_, err = f.d.Conversation(f.bobPr, f.alice.ID, TargetUser, f.bob.ID, pagination.Page{})
	if apperrors.StatusOf(err) != http.StatusForbidden {
		t.Errorf("foreign conversation: status = %d, want 403", apperrors.StatusOf(err))
	}
	admin := models.Principal{UserID: "admin", Admin: true}
	if _, err := f.d.Conversation(admin, f.alice.ID, TargetUser, f.bob.ID, pagination.Page{}); err != nil {
		t.Errorf("admin conversation rejected: %v", err)
	}
}

func TestChatListFoldsDirections(t *testing.T) {
	f := newChatFixture(t)

	f.send(t, f.alice.ID, f.bob.ID, "", "one")
	f.send(t, f.bob.ID, f.alice.ID, "", "two")
	f.send(t, f.alice.ID, "", f.group.ID, "three")

	list, err := f.d.ChatList(f.alicePr, f.alice.ID)
	if err != nil {
		t.Fatalf("ChatList: %v", err)
	}

	// A→B and B→A are one conversation; the group is another
	if len(list) != 2 {
		t.Fatalf("chat list has %d entries, want 2", len(list))
	}
	if list[0].Content != "three" {
		t.Errorf("newest entry is %q, want the group message", list[0].Content)
	}
	if list[1].Content != "two" {
		t.Errorf("direct conversation represented by %q, want its latest message", list[1].Content)
	}

	_, err = f.d.ChatList(f.bobPr, f.alice.ID)
	if apperrors.StatusOf(err) != http.StatusForbidden {
		t.Errorf("foreign chat list: status = %d, want 403", apperrors.StatusOf(err))
	}
}

func TestChatListKeepsLatestPerConversation(t *testing.T) {
	f := newChatFixture(t)

	f.send(t, f.alice.ID, "", f.group.ID, "g one")
	f.send(t, f.alice.ID, "", f.group.ID, "g two")
	f.send(t, f.alice.ID, "", f.group.ID, "g three")
	f.send(t, f.alice.ID, f.bob.ID, "", "dm")

	list, err := f.d.ChatList(f.bobPr, f.bob.ID)
	if err != nil {
		t.Fatalf("ChatList: %v", err)
	}

	// repeated group sends fold into one entry carrying the newest message
	if len(list) != 2 {
		t.Fatalf("chat list has %d entries, want 2", len(list))
	}
	if list[0].Content != "dm" {
		t.Errorf("newest entry is %q, want the direct message", list[0].Content)
	}
	if list[1].Content != "g three" {
		t.Errorf("group conversation represented by %q, want its latest message", list[1].Content)
	}
	for _, m := range list {
		if m.Content == "g one" || m.Content == "g two" {
			t.Errorf("superseded group message %q survived in the chat list", m.Content)
		}
	}

	f.send(t, f.alice.ID, f.mallory.ID, "", "psst")
	list, err = f.d.ChatList(f.malloryPr, f.mallory.ID)
	if err != nil {
		t.Fatalf("ChatList: %v", err)
	}
	if len(list) != 1 || list[0].Content != "psst" {
		t.Errorf("outside recipient list = %v, want just the direct message", list)
	}
}

func TestDeleteMessage(t *testing.T) {
	f := newChatFixture(t)
	msg := f.send(t, f.alice.ID, f.bob.ID, "", "oops")

	err := f.d.DeleteMessage(f.bobPr, msg.ID)
	if apperrors.StatusOf(err) != http.StatusForbidden {
		t.Errorf("recipient delete: status = %d, want 403", apperrors.StatusOf(err))
	}

	if err := f.d.DeleteMessage(f.alicePr, msg.ID); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if _, err := f.d.GetMessage(msg.ID, models.MessageQueryOpts{}); apperrors.StatusOf(err) != http.StatusNotFound {
		t.Error("message still present after delete")
	}
}
