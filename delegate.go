package meet

// SessionDelegate receives every UI-facing projection of the session state.
// Callbacks are invoked from the session's event loop and must return
// quickly; heavy work (decrypting history, rendering) belongs to the host
// app's side of the boundary.
type SessionDelegate interface {
	OnStateChanged(newState int)
	// OnParticipants carries the ordered active participant list as JSON.
	// Not called while the local participant is waiting for admission.
	OnParticipants(json []byte)
	// OnPendingParticipants carries the waiting-room list a host acts on.
	OnPendingParticipants(json []byte)
	// OnChatMessage carries one appended chat message; text stays ciphertext.
	OnChatMessage(json []byte)
	// OnReactions carries the full set of currently displayed reactions.
	OnReactions(json []byte)
	OnUnreadCount(count int)
	OnConnectionQuality(quality string)
	OnDuration(seconds int)
	// OnClock carries the wall clock as HH:MM, once per minute change.
	OnClock(clock string)
	OnError(message string)
}
