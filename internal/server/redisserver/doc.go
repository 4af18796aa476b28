// Package redisserver serves nonces over the Redis protocol (RESP2) so
// cache-side clients can draw them with an ordinary Redis driver.
//
// Supported commands:
//   - PING [message], QUIT
//   - AUTH [username] key
//   - NONCE [length]: one nonce as a bulk string
//   - NONCES count [length]: an array of bulk strings in issue order
//   - INFO [section]: server and issuance statistics
//
// Commands other than PING, AUTH and QUIT require AUTH when an API key is
// configured. Errors carry the DomainError code: "ERR TN-NONC-4001 ...".
package redisserver
