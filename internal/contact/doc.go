// Package contact defines the cached record of one remote user.
//
// A [User] carries identity data (handle, API identifier, e-mail,
// visibility, contact time), the bookkeeping flags the client needs while
// fetching public keys, and an [attr.Store] with the user's attributes.
// Every method takes the record lock, which is what makes the lock-free
// attribute store safe to share between goroutines. Records cross the
// persistence boundary through [User.Serialize] and [Unserialize].
package contact
