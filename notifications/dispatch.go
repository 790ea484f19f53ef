// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"fmt"
	"umkm-portal/commons"
)

func DispatchNotification(_type NotificationTypes, provider NotificationProviders, data NotificationData) error {
	commons.Logger.Debugf("Dispatching notification: type=%s provider=%s template=%s", _type, provider, data.Template)

	var err error
	switch _type {
	case Email:
		if commons.GetEnvBool("MOCK_EMAIL_NOTIFICATIONS", false) {
			commons.Logger.Debug("Mock email notifications enabled, using mock provider")
			provider = Mock
		}
		err = dispatchEmail(provider, data)
	default:
		err = fmt.Errorf("unsupported notification type: %s", _type)
	}

	if err != nil {
		commons.Logger.Errorf("Failed to dispatch notification: %v", err)
		return err
	}

	commons.Logger.Infof("Notification dispatched: type=%s provider=%s template=%s", _type, provider, data.Template)
	return nil
}

func dispatchEmail(provider NotificationProviders, data NotificationData) error {
	switch provider {
	case SMTP:
		return SMTPClient(data)
	case Mock:
		return MockEmailClient(data)
	default:
		return fmt.Errorf("unsupported email provider: %s", provider)
	}
}
