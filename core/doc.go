// Package core holds the attendance API client, its configuration and the
// contracts shared by the identity, backend and storage layers. Transport and
// identity implementations depend on this package; core never imports them.
package core
