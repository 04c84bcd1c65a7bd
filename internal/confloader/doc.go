// Package confloader loads process settings for the authcore binary.
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. defaults already present in the target struct
//  2. an optional YAML file
//  3. a .env file in the working directory, if present
//  4. the well-known unprefixed variables DATABASE_URL, REDIS_URL,
//     REDIS_PASSWORD, SKIP_ENV_VALIDATION and APP_URL
//  5. AUTHCORE_ prefixed variables, where a double underscore separates
//     levels: AUTHCORE_AUTH__SESSION__TOUCH_INTERVAL=10m
package confloader
